// Package tangify proxies the site's "Tangify" image generator: it forwards a
// user prompt to an OpenAI-compatible image endpoint, falling back through a
// model chain when the preferred model is unavailable. The dev server exposes
// it so the front-end never sees the API key.
package tangify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tangtown/tangdesk/internal/utils"
)

// Config controls how the generator behaves.
type Config struct {
	APIKey   string
	Model    string
	Fallback []string
	Endpoint string
	Size     string
	// HTTPClient may be injected by tests; nil gets a sane default.
	HTTPClient *http.Client
}

// Request is one generation request from the front-end.
type Request struct {
	Prompt string `json:"prompt"`
}

// Result is the generated image, base64-encoded, plus the model that
// actually produced it.
type Result struct {
	ImageB64 string `json:"image_b64"`
	Model    string `json:"model"`
}

// Generator defines the behavior the dev server needs.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

const (
	defaultModel    = "gpt-image-1"
	defaultEndpoint = "https://api.openai.com/v1/images/generations"
	defaultSize     = "1024x1024"

	// promptPrefix pins the house style so user prompts cannot wander off it.
	promptPrefix = "Pixel-art, early-90s desktop OS aesthetic, orange tang palette: "
)

// NewGenerator builds a concrete Generator from the config.
func NewGenerator(cfg Config) (Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("tangify requires an API key (set tangify.api_key in config or OPENAI_API_KEY)")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	size := strings.TrimSpace(cfg.Size)
	if size == "" {
		size = defaultSize
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &openAIGenerator{
		apiKey:   apiKey,
		models:   append([]string{model}, cfg.Fallback...),
		endpoint: endpoint,
		size:     size,
		client:   client,
	}, nil
}

type openAIGenerator struct {
	apiKey   string
	models   []string
	endpoint string
	size     string
	client   *http.Client
}

// Generate tries each model in order until one succeeds. A context
// cancellation stops the chain immediately; anything else falls through to
// the next model.
func (g *openAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("empty prompt")
	}

	var lastErr error
	for _, model := range g.models {
		utils.Log.Debugf("[tangify] trying model %s", model)
		res, err := g.generateWith(ctx, model, prompt)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		utils.Log.Debugf("[tangify] model %s failed: %v", model, err)
		lastErr = err
	}
	return nil, fmt.Errorf("all models failed: %w", lastErr)
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (g *openAIGenerator) generateWith(ctx context.Context, model, prompt string) (*Result, error) {
	body, err := json.Marshal(imageRequest{
		Model:          model,
		Prompt:         promptPrefix + prompt,
		N:              1,
		Size:           g.size,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("tangify: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("tangify failed with HTTP %d", resp.StatusCode)
	}

	var parsed imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, errors.New("tangify returned no image data")
	}

	return &Result{ImageB64: parsed.Data[0].B64JSON, Model: model}, nil
}
