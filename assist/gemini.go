// Package assist drafts post bodies with a text-generation service.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inkwell/common"
)

var ErrNotConfigured = errors.New("content generation is not configured")

// Generator writes an HTML body for a post from its title and subtitle.
type Generator interface {
	Generate(ctx context.Context, title, subtitle string) (string, error)
}

const promptTemplate = `Write a comprehensive blog post based on the following title and subtitle.
The content should be in rich text format (HTML) and structured with paragraphs and headings. Do not include <html> or <body> tags.

Title: %s
Subtitle: %s`

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Gemini calls the generateContent endpoint of the Gemini API.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewGemini(cfg common.GeminiConfig) *Gemini {
	return &Gemini{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     common.Logger("assist"),
	}
}

func (g *Gemini) Configured() bool {
	return g != nil && g.apiKey != ""
}

// endpoint carries no credentials; the key travels in a header so it never
// appears in a *url.Error.
func (g *Gemini) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		g.baseURL, url.PathEscape(g.model))
}

func (g *Gemini) Generate(ctx context.Context, title, subtitle string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, title, subtitle)}}}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		g.log.Warn().Err(err).Msg("generation request failed")
		return "", fmt.Errorf("%w: %v", common.ErrExternal, err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", common.ErrExternal, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "failed to generate content"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		g.log.Warn().Int("status", resp.StatusCode).Str("error", msg).Msg("generation failed")
		return "", fmt.Errorf("%w: %s", common.ErrExternal, msg)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", common.ErrExternal)
	}

	g.log.Info().Dur("took", time.Since(started)).Msg("content generated")
	return ToHTML(out.Candidates[0].Content.Parts[0].Text), nil
}

// stripFences removes a surrounding ``` or ```html code fence.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		return ""
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
