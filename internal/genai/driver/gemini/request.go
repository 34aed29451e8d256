package gemini

import (
	"fmt"
	"strings"

	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
)

type generateContentRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type embedContentRequest struct {
	Content geminiContent `json:"content"`
}

func buildGenerateRequest(req *driver.Request) (*generateContentRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	payload := &generateContentRequest{}

	for _, msg := range req.Messages {
		switch msg.Role {
		case driver.RoleSystem:
			// Gemini carries the system prompt out of band.
			payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: msg.Content}}}
		case driver.RoleAssistant:
			payload.Contents = append(payload.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		case driver.RoleUser:
			payload.Contents = append(payload.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			return nil, fmt.Errorf("unsupported message role: %q", msg.Role)
		}
	}

	if len(payload.Contents) == 0 {
		return nil, fmt.Errorf("at least one non-system message is required")
	}

	config := &generationConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		config.ResponseMimeType = "application/json"
	}
	if config.Temperature != nil || config.MaxOutputTokens != nil || config.ResponseMimeType != "" {
		payload.GenerationConfig = config
	}

	return payload, nil
}
