package recommend

import (
	"errors"
	"log"
	"net/http"

	"plantmate/internal/environment"
	"plantmate/internal/respond"
)

// Handler exposes POST /recommend.
type Handler struct {
	Service Service
}

// request mirrors environment.Input with pointers so absent required fields can
// be told apart from zero values.
type request struct {
	HasSouthSun       bool    `json:"has_south_sun"`
	HasNorthSun       bool    `json:"has_north_sun"`
	HasEastSun        bool    `json:"has_east_sun"`
	HasWestSun        bool    `json:"has_west_sun"`
	PlantLocation     *string `json:"plant_location"`
	HasBlindsCurtains *bool   `json:"has_blinds_curtains"`
	WaterFrequency    *int    `json:"water_frequency"`
}

func (req request) input() (environment.Input, error) {
	switch {
	case req.PlantLocation == nil:
		return environment.Input{}, errors.New("plant_location 필드가 필요합니다.")
	case req.HasBlindsCurtains == nil:
		return environment.Input{}, errors.New("has_blinds_curtains 필드가 필요합니다.")
	case req.WaterFrequency == nil:
		return environment.Input{}, errors.New("water_frequency 필드가 필요합니다.")
	}
	return environment.Input{
		HasSouthSun:       req.HasSouthSun,
		HasNorthSun:       req.HasNorthSun,
		HasEastSun:        req.HasEastSun,
		HasWestSun:        req.HasWestSun,
		PlantLocation:     *req.PlantLocation,
		HasBlindsCurtains: *req.HasBlindsCurtains,
		WaterFrequency:    *req.WaterFrequency,
	}, nil
}

// Recommend handles POST /recommend.
func (h Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Detail(w, http.StatusUnprocessableEntity, "잘못된 요청 본문입니다.")
		return
	}
	in, err := req.input()
	if err != nil {
		respond.Detail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp, err := h.Service.Recommend(r.Context(), in)
	if err != nil {
		var recErr *Error
		if !errors.As(err, &recErr) {
			log.Printf("recommend: %v", err)
			respond.Detail(w, http.StatusInternalServerError, "추천 생성에 실패했습니다.")
			return
		}
		log.Printf("recommend: %v", recErr)
		respond.DetailWith(w, recErr.Status(), detailMessage(recErr.Kind), map[string]any{"error": string(recErr.Kind)})
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}

func detailMessage(kind Kind) string {
	switch kind {
	case KindMalformedJSON:
		return "AI 응답을 해석하지 못했습니다."
	case KindMissingRecommendations:
		return "AI 응답에 추천 식물이 없습니다."
	case KindSchemaValidation:
		return "AI 응답 형식이 올바르지 않습니다."
	case KindUpstreamUnavailable:
		return "AI 서비스에 연결할 수 없습니다."
	case KindUpstreamRateLimited:
		return "AI 서비스 요청이 너무 많습니다. 잠시 후 다시 시도해 주세요."
	default:
		return "AI 서비스 오류가 발생했습니다."
	}
}
