// Package environment turns the structured answers about where a plant will live
// into the natural-language paragraph used in recommendation prompts.
package environment

import (
	"fmt"
	"strings"
)

// Location codes accepted for Input.PlantLocation.
const (
	LocationIndoor  = "Indoor"
	LocationWindow  = "Window"
	LocationBalcony = "Balcony"
)

// Unknown is rendered for any location or watering code missing from the tables.
const Unknown = "알 수 없음"

const noDirection = "햇빛 방향 정보가 명확하지 않습니다 (선택된 방향 없음)."

// Input holds the environment facts collected from the user.
type Input struct {
	HasSouthSun       bool   `json:"has_south_sun"`
	HasNorthSun       bool   `json:"has_north_sun"`
	HasEastSun        bool   `json:"has_east_sun"`
	HasWestSun        bool   `json:"has_west_sun"`
	PlantLocation     string `json:"plant_location"`
	HasBlindsCurtains bool   `json:"has_blinds_curtains"`
	WaterFrequency    int    `json:"water_frequency"`
}

var locations = map[string]string{
	LocationIndoor:  "창가에서 1m 이상 떨어진 실내",
	LocationWindow:  "창가 바로 옆 (직사광선 가능성이 있음)",
	LocationBalcony: "베란다/발코니 (야외와 유사한 환경)",
}

var waterings = map[int]string{
	1: "흙이 마르면 바로 물을 주는 것을 선호합니다 (물을 자주 주는 편)",
	2: "흙 표면이 마르면 물을 주는 것을 선호합니다 (주 1~2회 정도)",
	3: "흙 속까지 완전히 마르면 물을 주는 것을 선호합니다 (주 1회 미만 또는 더 긴 간격)",
	4: "한 달에 1~2회 정도만 물을 주는 것을 선호합니다 (물을 거의 주지 않는 편)",
}

// Describe renders the input as a four-line description. It has no side effects.
func Describe(in Input) string {
	blinds := "블라인드/커튼이 없습니다."
	if in.HasBlindsCurtains {
		blinds = "블라인드/커튼이 있습니다."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "화분을 놓을 곳의 햇빛 환경: %s\n", SunDescription(in))
	fmt.Fprintf(&b, "식물 위치: %s\n", LocationDescription(in.PlantLocation))
	fmt.Fprintf(&b, "블라인드/커튼 유무: %s\n", blinds)
	fmt.Fprintf(&b, "물주기 빈도: %s", WateringDescription(in.WaterFrequency))
	return b.String()
}

// SunDescription lists the active sun directions in south, north, east, west order.
func SunDescription(in Input) string {
	var directions []string
	if in.HasSouthSun {
		directions = append(directions, "남향 (햇빛이 강하게 들 수 있음)")
	}
	if in.HasNorthSun {
		directions = append(directions, "북향 (햇빛이 거의 없거나 간접광만 있음)")
	}
	if in.HasEastSun {
		directions = append(directions, "동향 (오전에 햇빛이 들고 오후에 간접광)")
	}
	if in.HasWestSun {
		directions = append(directions, "서향 (오후에 햇빛이 강하게 들 수 있음)")
	}

	switch len(directions) {
	case 0:
		return noDirection
	case 1:
		return directions[0]
	default:
		return "여러 방향의 햇빛이 들어옵니다: " + strings.Join(directions, ", ")
	}
}

// LocationDescription looks up a placement code.
func LocationDescription(code string) string {
	if desc, ok := locations[code]; ok {
		return desc
	}
	return Unknown
}

// WateringDescription looks up a watering habit code.
func WateringDescription(code int) string {
	if desc, ok := waterings[code]; ok {
		return desc
	}
	return Unknown
}
