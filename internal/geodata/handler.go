package geodata

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"plantmate/internal/respond"
)

// Handler exposes GET /weather.
type Handler struct {
	Geocoder Geocoder
	Weather  WeatherClient
}

// WeatherReport is the successful /weather body.
type WeatherReport struct {
	Address string         `json:"address"`
	Lat     float64        `json:"lat"`
	Lon     float64        `json:"lon"`
	Weather map[string]any `json:"weather"`
}

// Weather answers 200 in every case; failures are reported as {"error": message}.
func (h Handler) Weather(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respond.JSON(w, http.StatusOK, map[string]string{"error": "주소를 입력해 주세요."})
		return
	}

	point, err := h.Geocoder.Geocode(r.Context(), address)
	if err != nil {
		log.Printf("geodata: geocode %q: %v", address, err)
		msg := "주소 변환에 실패했습니다."
		if errors.Is(err, ErrAddressNotFound) {
			msg = "주소를 찾을 수 없습니다."
		}
		respond.JSON(w, http.StatusOK, map[string]string{"error": msg})
		return
	}

	current, err := h.Weather.Current(r.Context(), point)
	if err != nil {
		log.Printf("geodata: weather for %q: %v", address, err)
		respond.JSON(w, http.StatusOK, map[string]string{"error": "날씨 정보를 가져오지 못했습니다."})
		return
	}

	respond.JSON(w, http.StatusOK, WeatherReport{
		Address: address,
		Lat:     point.Lat,
		Lon:     point.Lon,
		Weather: Localized(current),
	})
}
