package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient wraps the Gemini API through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient constructs a Gemini client for the desired model.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client, model: normalizeModel(model)}, nil
}

// Complete sends conversational content to Gemini and returns the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	system, contents := splitMessages(req.Messages)
	if len(contents) == 0 {
		return Response{}, fmt.Errorf("gemini: missing user or assistant messages")
	}

	// MaxTokens is not applied: thinking models spend part of the output budget before answering.
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if fn := req.Function; fn != nil {
		cfg.Tools = []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  toGeminiSchema(fn.Parameters),
			}},
		}}
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{fn.Name},
			},
		}
	} else if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return Response{}, classifyGeminiError(ctx, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("gemini returned no candidates")
	}

	var out Response
	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil && out.FunctionName == "" {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return Response{}, fmt.Errorf("gemini: encode function args: %w", err)
			}
			out.FunctionName = part.FunctionCall.Name
			out.Arguments = string(args)
			continue
		}
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" && !part.Thought {
			texts = append(texts, trimmed)
		}
	}
	out.Content = strings.Join(texts, "\n\n")
	return out, nil
}

func splitMessages(messages []ChatMessage) (string, []*genai.Content) {
	var systemPrompts []string
	var contents []*genai.Content

	for _, msg := range messages {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "system":
			systemPrompts = append(systemPrompts, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return strings.Join(systemPrompts, "\n\n"), contents
}

func toGeminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Items:       toGeminiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	if s.MinItems != nil {
		out.MinItems = genai.Ptr(int64(*s.MinItems))
	}
	if s.MaxItems != nil {
		out.MaxItems = genai.Ptr(int64(*s.MaxItems))
	}
	return out
}

func classifyGeminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	code, message := 0, ""
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, message = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		code, message = apiErrPtr.Code, apiErrPtr.Message
	default:
		log.Printf("llm: gemini call %s: %v", callIDFromContext(ctx), err)
		return fmt.Errorf("gemini perform request: %v: %w", err, ErrUnavailable)
	}

	if code == http.StatusTooManyRequests {
		return fmt.Errorf("gemini status 429: %s: %w", message, ErrRateLimited)
	}
	return &APIError{Provider: "gemini", StatusCode: code, Message: message}
}

func normalizeModel(model string) string {
	clean := strings.TrimSpace(model)
	clean = strings.TrimPrefix(clean, "models/")
	if clean == "" {
		return "gemini-2.5-flash"
	}
	return clean
}
