package assist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/common"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGemini(common.GeminiConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
	})
}

func TestGenerate_RendersMarkdown(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)

		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "Title: Go in production")
		assert.Contains(t, req.Contents[0].Parts[0].Text, "Subtitle: Lessons learned")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"`+"```markdown\\n# Intro\\n\\nHello **world**\\n```"+`"}]}}]}`)
	})

	html, err := g.Generate(context.Background(), "Go in production", "Lessons learned")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Intro</h1>")
	assert.Contains(t, html, "<strong>world</strong>")
}

func TestGenerate_PassesHTMLThrough(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"<h2>Hi</h2><p>there</p>"}]}}]}`)
	})

	html, err := g.Generate(context.Background(), "t", "s")
	require.NoError(t, err)
	assert.Equal(t, "<h2>Hi</h2><p>there</p>", html)
}

func TestGenerate_APIError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"API key not valid"}}`)
	})

	_, err := g.Generate(context.Background(), "t", "s")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExternal)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGenerate_TimeoutHidesKey(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	})
	g.client.Timeout = 50 * time.Millisecond

	_, err := g.Generate(context.Background(), "t", "s")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExternal)
	assert.Equal(t, http.StatusBadGateway, common.Status(err))
	assert.NotContains(t, err.Error(), "test-key")
	assert.NotContains(t, err.Error(), "generateContent")
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := g.Generate(context.Background(), "t", "s")
	assert.ErrorIs(t, err, common.ErrExternal)
}

func TestGenerate_NotConfigured(t *testing.T) {
	g := NewGemini(common.GeminiConfig{})
	assert.False(t, g.Configured())

	_, err := g.Generate(context.Background(), "t", "s")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "<p>x</p>", stripFences("```html\n<p>x</p>\n```"))
	assert.Equal(t, "plain", stripFences("  plain  "))
	assert.Equal(t, "", stripFences("```"))
}

func TestIsEmptyBody(t *testing.T) {
	for _, body := range []string{"", "   ", "<p><br></p>", "<p></p>"} {
		assert.True(t, IsEmptyBody(body), body)
	}
	assert.False(t, IsEmptyBody("<p>content</p>"))
}

func TestToHTML(t *testing.T) {
	assert.Contains(t, ToHTML("visit https://go.dev"), `<a href="https://go.dev">`)
	assert.True(t, strings.HasPrefix(ToHTML("- a\n- b"), "<ul>"))
}
