package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ndjsonServer(t *testing.T, tokens []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		enc := json.NewEncoder(w)
		for _, tok := range tokens {
			require.NoError(t, enc.Encode(GenerateResponse{Response: tok}))
		}
		require.NoError(t, enc.Encode(GenerateResponse{Done: true}))
	}))
}

func TestGenerateStreamDeliversTokensInOrder(t *testing.T) {
	srv := ndjsonServer(t, []string{"Hello", ", ", "world"})
	defer srv.Close()

	client := NewClient(srv.URL)
	var got []string
	answer, err := client.GenerateStream(context.Background(), &GenerateRequest{
		Model:  "deepseek-r1:1.5b",
		Prompt: "greet me",
	}, func(tok string) {
		got = append(got, tok)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", ", ", "world"}, got)
	assert.Equal(t, "Hello, world", answer)
}

func TestGenerateConcatenatesFrames(t *testing.T) {
	srv := ndjsonServer(t, []string{"42"})
	defer srv.Close()

	client := NewClient(srv.URL)
	answer, err := client.Generate(context.Background(), &GenerateRequest{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "42", answer)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Generate(context.Background(), &GenerateRequest{Model: "missing", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprint(http.StatusNotFound))
}

func TestGenerateStreamNilCallback(t *testing.T) {
	srv := ndjsonServer(t, []string{"ok"})
	defer srv.Close()

	client := NewClient(srv.URL)
	answer, err := client.GenerateStream(context.Background(), &GenerateRequest{Model: "m", Prompt: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
}

func TestWithTemperature(t *testing.T) {
	req := (&GenerateRequest{Model: "m", Prompt: "p"}).WithTemperature(0.3)
	assert.Equal(t, 0.3, req.Options["temperature"])
}
