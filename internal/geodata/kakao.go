package geodata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const kakaoAddressURL = "https://dapi.kakao.com/v2/local/search/address.json"

// KakaoGeocoder resolves Korean addresses through the Kakao Local API.
type KakaoGeocoder struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewKakaoGeocoder constructs a geocoder using a Kakao REST API key.
func NewKakaoGeocoder(apiKey string, client *http.Client) *KakaoGeocoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &KakaoGeocoder{apiKey: apiKey, endpoint: kakaoAddressURL, client: client}
}

type kakaoAddressResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		X           string `json:"x"`
		Y           string `json:"y"`
	} `json:"documents"`
}

// Geocode returns the first match. Zero matches yield ErrAddressNotFound.
func (g *KakaoGeocoder) Geocode(ctx context.Context, address string) (Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Coordinates{}, ErrAddressNotFound
	}

	header := http.Header{}
	header.Set("Authorization", "KakaoAK "+g.apiKey)

	var resp kakaoAddressResponse
	if err := get(ctx, g.client, "kakao", g.endpoint, url.Values{"query": []string{address}}, header, &resp); err != nil {
		return Coordinates{}, err
	}
	if len(resp.Documents) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
	}

	doc := resp.Documents[0]
	lon, err := strconv.ParseFloat(doc.X, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("kakao: parse x %q: %w", doc.X, err)
	}
	lat, err := strconv.ParseFloat(doc.Y, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("kakao: parse y %q: %w", doc.Y, err)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}
