// Package care produces weather-aware care advice for a user's plants.
package care

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"plantmate/internal/geodata"
	"plantmate/internal/llm"
	"plantmate/internal/prompts"
)

var (
	// ErrMissingKey means the model's JSON object has no care_advice key.
	ErrMissingKey = errors.New("care_advice key missing")
	// ErrShape means care_advice does not hold exactly one entry per requested plant.
	ErrShape = errors.New("care_advice has the wrong shape")
)

const (
	temperature = 0.5
	maxTokens   = 800
)

// Advice is one plant's instruction for today.
type Advice struct {
	Plant  string `json:"plant"`
	Advice string `json:"advice"`
}

// Generator asks the model for every plant's advice in one call.
type Generator struct {
	LLM llm.Client
}

// Generate returns one entry per plant, in the order of plants.
func (g Generator) Generate(ctx context.Context, plants []string, weather geodata.Weather) ([]Advice, error) {
	if len(plants) == 0 {
		return nil, errors.New("care: no plants to advise on")
	}

	system, user := prompts.CarePrompts(plants, weather.Condition, weather.Temperature, weather.Humidity)
	resp, err := g.LLM.Complete(ctx, llm.Request{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("care: generate advice: %w", err)
	}

	advice, err := Parse(resp.Content, plants)
	if err != nil {
		log.Printf("care: rejecting payload %q: %v", truncate(resp.Content, 200), err)
		return nil, err
	}
	return advice, nil
}

// Parse decodes the model's object and matches entries to plants by name.
func Parse(content string, plants []string) ([]Advice, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &object); err != nil {
		return nil, fmt.Errorf("care: decode advice: %w", err)
	}
	raw, ok := object["care_advice"]
	if !ok {
		return nil, ErrMissingKey
	}

	var entries []Advice
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if len(entries) != len(plants) {
		return nil, fmt.Errorf("%w: %d entries for %d plants", ErrShape, len(entries), len(plants))
	}

	byPlant := make(map[string]string, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Plant)
		if _, dup := byPlant[name]; dup {
			return nil, fmt.Errorf("%w: %q listed twice", ErrShape, name)
		}
		byPlant[name] = strings.TrimSpace(e.Advice)
	}

	out := make([]Advice, 0, len(plants))
	for _, plant := range plants {
		text, ok := byPlant[plant]
		if !ok {
			return nil, fmt.Errorf("%w: no entry for %q", ErrShape, plant)
		}
		if text == "" {
			return nil, fmt.Errorf("%w: empty advice for %q", ErrShape, plant)
		}
		out = append(out, Advice{Plant: plant, Advice: text})
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
