// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/brief-analyst/pkg/types"
)

func openAIServer(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewOpenAI(types.AIConfig{APIKey: "sk-test", BaseURL: ts.URL, RateLimitRPS: 1000}, ts.Client(), nil)
}

func TestOpenAICompleteSendsRequest(t *testing.T) {
	var body map[string]any
	var auth string
	c := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"market analysis"}}],"usage":{"prompt_tokens":10,"completion_tokens":3}}`)
	})

	text, err := c.Complete(context.Background(), "analyze", Options{System: "be terse", Temperature: 0.3, MaxOutputTokens: 900})
	require.NoError(t, err)
	assert.Equal(t, "market analysis", text)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o", body["model"])
	assert.EqualValues(t, 900, body["max_tokens"])
	assert.InDelta(t, 0.3, body["temperature"], 0.0001)
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "analyze", msgs[1].(map[string]any)["content"])
}

func TestOpenAIEmptyCompletion(t *testing.T) {
	c := openAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`)
	})

	_, err := c.Complete(context.Background(), "p", Options{})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ProviderOpenAI, gerr.Provider)
}

func TestOpenAICircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	c := openAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	})

	for i := 0; i < circuitBreakerThreshold; i++ {
		_, err := c.Complete(context.Background(), "p", Options{})
		require.Error(t, err)
	}
	_, err := c.Complete(context.Background(), "p", Options{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(circuitBreakerThreshold), atomic.LoadInt32(&calls))
}
