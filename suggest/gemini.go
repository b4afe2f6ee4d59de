package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/tsawler/formfill/model"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// generateFunc sends one prompt and returns the reply text.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Gemini suggests values and mappings with a Gemini model. It implements
// both Suggester and Mapper.
type Gemini struct {
	model    string
	prompts  *Prompts
	log      *slog.Logger
	generate generateFunc
}

// GeminiOption configures Gemini.
type GeminiOption func(*Gemini)

// WithModel sets the model name.
func WithModel(name string) GeminiOption {
	return func(g *Gemini) {
		if name != "" {
			g.model = name
		}
	}
}

// WithPrompts replaces the prompt templates.
func WithPrompts(p *Prompts) GeminiOption {
	return func(g *Gemini) { g.prompts = p }
}

// WithGeminiLogger sets the logger.
func WithGeminiLogger(l *slog.Logger) GeminiOption {
	return func(g *Gemini) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGemini creates a client for the Gemini API.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	return NewGeminiWithClient(client, opts...)
}

// NewGeminiWithClient wraps an existing client.
func NewGeminiWithClient(client *genai.Client, opts ...GeminiOption) (*Gemini, error) {
	g, err := newGemini(nil, opts...)
	if err != nil {
		return nil, err
	}
	g.generate = func(ctx context.Context, prompt string) (string, error) {
		return generate(ctx, client, g.model, prompt, g.log)
	}
	return g, nil
}

func newGemini(fn generateFunc, opts ...GeminiOption) (*Gemini, error) {
	g := &Gemini{model: DefaultModel, log: slog.Default(), generate: fn}
	for _, opt := range opts {
		opt(g)
	}
	if g.prompts == nil {
		p, err := NewPrompts(nil)
		if err != nil {
			return nil, err
		}
		g.prompts = p
	}
	return g, nil
}

// Suggest implements Suggester.
func (g *Gemini) Suggest(ctx context.Context, fields []model.FieldSummary, evidence []map[string]any) ([]model.FillValue, error) {
	prompt, err := g.prompts.Values(fields, evidence)
	if err != nil {
		return nil, err
	}
	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseValues(reply)
}

// SuggestMappings implements Mapper.
func (g *Gemini) SuggestMappings(ctx context.Context, fields []model.FieldSummary) (map[string]string, error) {
	prompt, err := g.prompts.Mappings(fields)
	if err != nil {
		return nil, err
	}
	reply, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseMappings(reply)
}

func generate(ctx context.Context, client *genai.Client, modelName, prompt string, log *slog.Logger) (string, error) {
	if client == nil {
		return "", errors.New("gemini: client not initialized")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	log.Debug("generating content", "model", modelName, "prompt_length", len(prompt))
	resp, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("gemini: no parts in candidate content")
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: no text in response")
	}
	log.Debug("received response", "length", b.Len())
	return b.String(), nil
}
