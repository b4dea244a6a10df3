package environment

import (
	"strings"
	"testing"
)

func TestDescribeNoDirectionIndoorScenario(t *testing.T) {
	desc := Describe(Input{
		PlantLocation:     LocationIndoor,
		HasBlindsCurtains: true,
		WaterFrequency:    3,
	})

	for _, phrase := range []string{
		"방향 정보가 명확하지 않습니다",
		"창가에서 1m 이상",
		"블라인드/커튼이 있습니다",
		WateringDescription(3),
	} {
		if got := strings.Count(desc, phrase); got != 1 {
			t.Errorf("phrase %q appears %d times in:\n%s", phrase, got, desc)
		}
	}
}

func TestSunDescriptionSingleDirection(t *testing.T) {
	cases := []struct {
		in   Input
		want string
	}{
		{in: Input{HasSouthSun: true}, want: "남향 (햇빛이 강하게 들 수 있음)"},
		{in: Input{HasNorthSun: true}, want: "북향 (햇빛이 거의 없거나 간접광만 있음)"},
		{in: Input{HasEastSun: true}, want: "동향 (오전에 햇빛이 들고 오후에 간접광)"},
		{in: Input{HasWestSun: true}, want: "서향 (오후에 햇빛이 강하게 들 수 있음)"},
	}
	for _, tc := range cases {
		if got := SunDescription(tc.in); got != tc.want {
			t.Errorf("SunDescription(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSunDescriptionMultipleDirectionsCanonicalOrder(t *testing.T) {
	got := SunDescription(Input{HasWestSun: true, HasSouthSun: true, HasEastSun: true})
	want := "여러 방향의 햇빛이 들어옵니다: 남향 (햇빛이 강하게 들 수 있음), 동향 (오전에 햇빛이 들고 오후에 간접광), 서향 (오후에 햇빛이 강하게 들 수 있음)"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	all := SunDescription(Input{HasSouthSun: true, HasNorthSun: true, HasEastSun: true, HasWestSun: true})
	for _, dir := range []string{"남향", "북향", "동향", "서향"} {
		if n := strings.Count(all, dir); n != 1 {
			t.Errorf("%s appears %d times in %q", dir, n, all)
		}
	}
}

func TestUnknownCodesRenderUnknown(t *testing.T) {
	desc := Describe(Input{PlantLocation: "Garage", WaterFrequency: 9})
	if !strings.Contains(desc, "식물 위치: "+Unknown) {
		t.Errorf("location not rendered as unknown: %q", desc)
	}
	if !strings.Contains(desc, "물주기 빈도: "+Unknown) {
		t.Errorf("watering not rendered as unknown: %q", desc)
	}
	if got := LocationDescription("indoor"); got != Unknown {
		t.Errorf("location codes are case sensitive, got %q", got)
	}
	if got := WateringDescription(0); got != Unknown {
		t.Errorf("WateringDescription(0) = %q", got)
	}
}

func TestDescribeIsDeterministic(t *testing.T) {
	in := Input{HasEastSun: true, PlantLocation: LocationWindow, WaterFrequency: 2}
	first := Describe(in)
	Describe(Input{HasNorthSun: true, PlantLocation: LocationBalcony, WaterFrequency: 4})
	if second := Describe(in); first != second {
		t.Fatalf("Describe not deterministic:\n%q\n%q", first, second)
	}
	if strings.Count(first, "\n") != 3 {
		t.Fatalf("expected four lines, got %q", first)
	}
}
