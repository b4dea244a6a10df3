package geodata

// Localized labels used by the weather and plant-care responses.
const (
	LabelCondition   = "날씨"
	LabelTemperature = "기온(°C)"
	LabelFeelsLike   = "체감온도(°C)"
	LabelHumidity    = "습도(%)"
	LabelWindSpeed   = "바람속도(m/s)"
	LabelRain1h      = "강수량(mm, 1시간)"
)

// Localized renders a snapshot as the field map shown to Korean users.
func Localized(w Weather) map[string]any {
	return map[string]any{
		LabelCondition:   w.Condition,
		LabelTemperature: w.Temperature,
		LabelFeelsLike:   w.FeelsLike,
		LabelHumidity:    w.Humidity,
		LabelWindSpeed:   w.WindSpeed,
		LabelRain1h:      w.Rain1h,
	}
}
