// Package recommend turns an environment description into exactly three plant
// recommendations using a schema-constrained LLM call.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"plantmate/internal/environment"
	"plantmate/internal/imagesearch"
	"plantmate/internal/llm"
	"plantmate/internal/prompts"
)

// Count is the number of plants every successful response carries.
const Count = 3

const (
	temperature = 0.7
	maxTokens   = 500
	logPreview  = 200
)

// Kind classifies why a recommendation could not be produced.
type Kind string

const (
	KindMalformedJSON          Kind = "malformed_json"
	KindMissingRecommendations Kind = "missing_recommendations"
	KindSchemaValidation       Kind = "schema_validation"
	KindUpstreamUnavailable    Kind = "upstream_unavailable"
	KindUpstreamRateLimited    Kind = "upstream_rate_limited"
	KindUpstreamError          Kind = "upstream_error"
)

// Error is a failed recommendation with its kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("recommend %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status surfaced for the failure kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstreamRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Plant is one recommended plant. ImageURL is nil when no photo was found.
type Plant struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// Response is the body returned by POST /recommend.
type Response struct {
	Recommendations []Plant `json:"recommendations"`
}

// Service composes the describer, the LLM and the image resolver.
type Service struct {
	LLM    llm.Client
	Images imagesearch.Resolver
	// BasePath prefixes proxied image paths.
	BasePath string
}

// Recommend returns exactly three plants for in, or an *Error.
func (s Service) Recommend(ctx context.Context, in environment.Input) (Response, error) {
	system, user := prompts.RecommendPrompts(environment.Describe(in))

	resp, err := s.LLM.Complete(ctx, llm.Request{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Function:    Function(),
	})
	if err != nil {
		return Response{}, &Error{Kind: upstreamKind(err), Err: err}
	}

	plants, err := parseCall(resp)
	if err != nil {
		log.Printf("recommend: rejecting payload %q: %v", preview(resp.Arguments), err)
		return Response{}, err
	}

	s.enrich(ctx, plants)
	return Response{Recommendations: plants}, nil
}

// parseCall accepts only a call to recommend_plants.
func parseCall(resp llm.Response) ([]Plant, error) {
	switch resp.FunctionName {
	case prompts.RecommendFunctionName:
		return Parse(resp.Arguments)
	case "":
		return nil, &Error{Kind: KindMissingRecommendations, Err: errors.New("model did not call a function")}
	default:
		return nil, &Error{Kind: KindSchemaValidation, Err: fmt.Errorf("model called %q, want %q", resp.FunctionName, prompts.RecommendFunctionName)}
	}
}

// Function declares recommend_plants with an array of exactly three items.
func Function() *llm.Function {
	return &llm.Function{
		Name:        prompts.RecommendFunctionName,
		Description: prompts.RecommendFunctionDescription(),
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"recommendations": {
					Type:     "array",
					MinItems: llm.Count(Count),
					MaxItems: llm.Count(Count),
					Items: &llm.Schema{
						Type: "object",
						Properties: map[string]*llm.Schema{
							"name":        {Type: "string", Description: prompts.PlantNameDescription},
							"description": {Type: "string", Description: prompts.PlantDescriptionDescription},
						},
						Required: []string{"name", "description"},
					},
				},
			},
			Required: []string{"recommendations"},
		},
	}
}

type item struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Parse validates the function-call arguments. All three items must be valid or
// the whole batch fails.
func Parse(arguments string) ([]Plant, error) {
	if !json.Valid([]byte(arguments)) {
		return nil, &Error{Kind: KindMalformedJSON, Err: errors.New("arguments are not valid JSON")}
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arguments), &object); err != nil {
		return nil, &Error{Kind: KindMissingRecommendations, Err: fmt.Errorf("arguments are not an object: %w", err)}
	}
	var raw []json.RawMessage
	if field, ok := object["recommendations"]; ok {
		if err := json.Unmarshal(field, &raw); err != nil {
			return nil, &Error{Kind: KindMissingRecommendations, Err: fmt.Errorf("recommendations is not an array: %w", err)}
		}
	}
	if len(raw) == 0 {
		return nil, &Error{Kind: KindMissingRecommendations, Err: errors.New("no recommendations in payload")}
	}
	if len(raw) != Count {
		return nil, &Error{Kind: KindSchemaValidation, Err: fmt.Errorf("got %d recommendations, want %d", len(raw), Count)}
	}

	plants := make([]Plant, 0, Count)
	for i, r := range raw {
		var it item
		if err := json.Unmarshal(r, &it); err != nil {
			return nil, &Error{Kind: KindSchemaValidation, Err: fmt.Errorf("item %d: %w", i, err)}
		}
		if it.Name == nil || strings.TrimSpace(*it.Name) == "" {
			return nil, &Error{Kind: KindSchemaValidation, Err: fmt.Errorf("item %d: name is required", i)}
		}
		if it.Description == nil || strings.TrimSpace(*it.Description) == "" {
			return nil, &Error{Kind: KindSchemaValidation, Err: fmt.Errorf("item %d: description is required", i)}
		}
		plants = append(plants, Plant{
			Name:        strings.TrimSpace(*it.Name),
			Description: strings.TrimSpace(*it.Description),
		})
	}
	return plants, nil
}

// enrich looks up every photo concurrently. Each goroutine writes only its own
// slot, so the model's ranking is kept.
func (s Service) enrich(ctx context.Context, plants []Plant) {
	if s.Images == nil {
		return
	}
	var g errgroup.Group
	for i := range plants {
		g.Go(func() error {
			link, err := s.Images.Resolve(ctx, plants[i].Name)
			if err != nil {
				log.Printf("recommend: image for %q: %v", plants[i].Name, err)
				return nil
			}
			if link != "" {
				proxied := imagesearch.ProxyPath(s.BasePath, link)
				plants[i].ImageURL = &proxied
			}
			return nil
		})
	}
	_ = g.Wait()
}

// upstreamKind classifies a failed LLM call. Anything that is neither a
// connection failure nor a rate limit, *llm.APIError included, is upstream_error.
func upstreamKind(err error) Kind {
	switch llm.HTTPStatus(err) {
	case http.StatusServiceUnavailable:
		return KindUpstreamUnavailable
	case http.StatusTooManyRequests:
		return KindUpstreamRateLimited
	default:
		return KindUpstreamError
	}
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= logPreview {
		return s
	}
	return string([]rune(s)[:logPreview]) + "…"
}
