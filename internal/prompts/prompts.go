package prompts

import (
	"fmt"
	"strings"
)

// RecommendFunctionName is the single tool the recommender forces the model to call.
const RecommendFunctionName = "recommend_plants"

const recommendSystemPrompt = "You are a helpful plant recommendation expert. Provide plant recommendations in the specified JSON format using the `recommend_plants` tool."

const recommendUserTemplate = `당신은 식물 추천 전문가입니다. 사용자로부터 다음과 같은 거주 환경 정보를 받았습니다:

%s

이러한 환경 조건에 가장 적합하고 한국 가정에서 기르기 쉬운 실내 식물 3가지를 추천해 주세요.
각 식물에 대해 이름과 간략한 설명을 포함해야 합니다.
설명은 200자 이내로 작성하고, 햇빛, 물주기, 통풍 등 왜 이 환경에 적합한지를 중심으로 써 주세요.`

const careSystemPrompt = "너는 식물 관리 전문가야. 항상 하나의 JSON 객체로만 답해."

const careUserTemplate = `오늘 날씨는 %s이고 기온은 %.1f°C, 습도는 %d%%입니다.
다음 식물들에 대해 오늘 날씨에 맞는 관리 팁을 각각 한두 문장으로 알려 주세요: %s

반드시 아래 형식의 JSON 객체 하나로만 답하세요. 식물마다 정확히 하나의 항목을 넣고, "plant" 값은 위 목록의 이름을 그대로 사용하세요.
{"care_advice": [{"plant": "식물 이름", "advice": "관리 팁"}]}`

// RecommendPrompts returns the system + user prompt pair for a plant recommendation.
func RecommendPrompts(environmentDescription string) (string, string) {
	return recommendSystemPrompt, fmt.Sprintf(recommendUserTemplate, environmentDescription)
}

// RecommendFunctionDescription describes the recommend_plants tool to the model.
func RecommendFunctionDescription() string {
	return "사용자의 환경 조건에 맞는 식물을 추천합니다."
}

// Field descriptions for the recommend_plants parameter schema.
const (
	PlantNameDescription        = "식물 이름"
	PlantDescriptionDescription = "식물에 대한 간략한 설명과 왜 이 환경에 적합한지 (햇빛, 물주기, 통풍, 기타 환경 요인 위주로)"
)

// CarePrompts returns the system + user prompt pair for one batched care-advice call.
func CarePrompts(plants []string, condition string, temperature float64, humidity int) (string, string) {
	return careSystemPrompt, fmt.Sprintf(careUserTemplate, condition, temperature, humidity, strings.Join(plants, ", "))
}
