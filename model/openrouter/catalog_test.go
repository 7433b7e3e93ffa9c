package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"id":"anthropic/claude-haiku-4.5","name":"Claude Haiku 4.5","pricing":{"prompt":"0.000001","completion":"0.000005"},"context_length":200000},
			{"id":"mistralai/mistral-7b","pricing":{"prompt":"0","completion":"0"},"context_length":32000}
		]}`))
	}))
	defer srv.Close()

	entries, err := ListModels(context.Background(), "sk-or-test", func(o *Options) { o.BaseURL = srv.URL })
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Claude Haiku 4.5", entries[0].Name)
	// Missing name falls back to the id.
	assert.Equal(t, "mistralai/mistral-7b", entries[1].Name)
}

func TestListModels_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := ListModels(context.Background(), "bad-key", func(o *Options) { o.BaseURL = srv.URL })
	assert.Error(t, err)
}

func TestGroupByProvider(t *testing.T) {
	entries := []CatalogEntry{
		{ID: "openai/gpt-4o", Name: "GPT-4o"},
		{ID: "anthropic/claude-haiku-4.5", Name: "Claude Haiku 4.5"},
		{ID: "anthropic/claude-sonnet-4.5", Name: "Claude Sonnet 4.5"},
		{ID: "standalone", Name: "Standalone"},
	}

	providers, groups := GroupByProvider(entries)
	assert.Equal(t, []string{"Other", "anthropic", "openai"}, providers)
	assert.Len(t, groups["anthropic"], 2)
	assert.Equal(t, "Claude Haiku 4.5", groups["anthropic"][0].Name)
}

func TestFormatPricing(t *testing.T) {
	cases := []struct {
		name string
		p    Pricing
		want string
	}{
		{"free", Pricing{Prompt: "0", Completion: "0"}, "Free"},
		{"standard", Pricing{Prompt: "0.000003", Completion: "0.000015"}, "$3.00/$15.00 per 1M"},
		{"tiny", Pricing{Prompt: "0.000000000001", Completion: "0.000000000002"}, "$0.0000/$0.0000 per 1M"},
		{"unparsable", Pricing{Prompt: "n/a", Completion: "0"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatPricing(tc.p))
		})
	}
}
