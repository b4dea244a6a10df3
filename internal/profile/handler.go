package profile

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"plantmate/internal/auth"
	"plantmate/internal/respond"
	"plantmate/internal/storage"
)

const (
	minAddressLength = 2
	maxAddressLength = 200
)

// Handler exposes the caller's own profile endpoints.
type Handler struct {
	Lookup Lookup
	Store  storage.Store
}

type updateAddressRequest struct {
	Address *string `json:"address"`
}

// MyPlants handles GET /my-plants.
func (h Handler) MyPlants(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	plants, err := h.Lookup.PlantNames(r.Context(), userID)
	if err != nil {
		log.Printf("profile: plants for user %d: %v", userID, err)
		respond.Detail(w, http.StatusInternalServerError, "식물 목록을 불러오지 못했습니다.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]string{"plants": plants})
}

// UpdateAddress handles PATCH /users/me/address.
func (h Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var payload updateAddressRequest
	if err := respond.DecodeJSON(r, &payload); err != nil {
		respond.Detail(w, http.StatusUnprocessableEntity, "잘못된 요청 본문입니다.")
		return
	}
	if payload.Address == nil {
		respond.Detail(w, http.StatusUnprocessableEntity, "address 필드가 필요합니다.")
		return
	}

	address, err := ValidateAddress(*payload.Address)
	if err != nil {
		respond.Detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.Store.UpdateUserAddress(r.Context(), userID, address); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Detail(w, http.StatusNotFound, "사용자를 찾을 수 없습니다.")
			return
		}
		log.Printf("profile: update address for user %d: %v", userID, err)
		respond.Detail(w, http.StatusInternalServerError, "주소를 저장하지 못했습니다.")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"address": address})
}

// ValidateAddress trims raw and enforces the 2 to 200 character bounds.
func ValidateAddress(raw string) (string, error) {
	address := strings.TrimSpace(raw)
	if address == "" {
		return "", errors.New("주소를 입력해 주세요.")
	}
	n := utf8.RuneCountInString(address)
	if n < minAddressLength || n > maxAddressLength {
		return "", errors.New("주소는 2자 이상 200자 이하로 입력해 주세요.")
	}
	return address, nil
}
