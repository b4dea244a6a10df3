package care

import (
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"

	"plantmate/internal/auth"
	"plantmate/internal/geodata"
	"plantmate/internal/llm"
	"plantmate/internal/profile"
	"plantmate/internal/respond"
)

// Handler serves GET /plant-care and GET /plant-care-advice.
type Handler struct {
	Profiles  profile.Lookup
	Geocoder  geodata.Geocoder
	Weather   geodata.WeatherClient
	Generator Generator
}

// Report is the successful response body.
type Report struct {
	Address    string         `json:"address"`
	Weather    map[string]any `json:"weather"`
	CareAdvice []Advice       `json:"care_advice"`
}

// PlantCare resolves the caller's address and plants, fetches today's weather and
// returns advice for each plant.
func (h Handler) PlantCare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)
	query := r.URL.Query()

	p, err := h.Profiles.Resolve(ctx, userID, query.Get("address"))
	switch {
	case errors.Is(err, profile.ErrNoAddress):
		respond.Detail(w, http.StatusUnprocessableEntity, "등록된 주소가 없습니다. 주소를 먼저 입력해 주세요.")
		return
	case errors.Is(err, profile.ErrNoPlants):
		respond.DetailWith(w, http.StatusUnprocessableEntity, "등록된 식물이 없습니다. 식물을 먼저 식별해 주세요.",
			map[string]any{"need_plant_identification": true})
		return
	case err != nil:
		log.Printf("care: resolve user %d: %v", userID, err)
		respond.Detail(w, http.StatusInternalServerError, "사용자 정보를 불러오지 못했습니다.")
		return
	}

	plants := p.Plants
	if name := strings.TrimSpace(query.Get("plant_name")); name != "" {
		if !slices.Contains(plants, name) {
			respond.Detail(w, http.StatusUnprocessableEntity, "등록되지 않은 식물입니다: "+name)
			return
		}
		plants = []string{name}
	}

	point, err := h.Geocoder.Geocode(ctx, p.Address)
	if err != nil {
		lookupFailure(w, "geocode", p.Address, err)
		return
	}
	current, err := h.Weather.Current(ctx, point)
	if err != nil {
		lookupFailure(w, "weather", p.Address, err)
		return
	}

	advice, err := h.Generator.Generate(ctx, plants, current)
	if err != nil {
		log.Printf("care: advice for user %d: %v", userID, err)
		// Transport failures keep their 503/429/502; malformed advice stays 500.
		respond.Detail(w, llm.HTTPStatus(err), "관리 팁을 생성하지 못했습니다.")
		return
	}

	respond.JSON(w, http.StatusOK, Report{
		Address:    p.Address,
		Weather:    geodata.Localized(current),
		CareAdvice: advice,
	})
}

func lookupFailure(w http.ResponseWriter, step, address string, err error) {
	log.Printf("care: %s %q: %v", step, address, err)
	switch {
	case errors.Is(err, geodata.ErrAddressNotFound):
		respond.Detail(w, http.StatusUnprocessableEntity, "주소를 찾을 수 없습니다.")
	case geodata.UpstreamFailure(err):
		respond.Detail(w, http.StatusBadGateway, "날씨 정보를 가져오지 못했습니다.")
	default:
		respond.Detail(w, http.StatusInternalServerError, "날씨 정보를 처리하지 못했습니다.")
	}
}
