package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CatalogEntry describes one model offered through OpenRouter. Pricing values
// arrive as per-token dollar amounts encoded as strings.
type CatalogEntry struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Pricing       Pricing `json:"pricing"`
	ContextLength int     `json:"context_length"`
}

// Pricing holds the per-token prompt/completion cost of a model.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ListModels fetches the model catalog. A valid response also serves as API
// key validation during setup. The openai SDK's models endpoint does not
// surface OpenRouter's pricing or context-length fields, so this call decodes
// the raw /models response directly.
func ListModels(ctx context.Context, apiKey string, optFns ...func(o *Options)) ([]CatalogEntry, error) {
	opts := Options{BaseURL: DefaultBaseURL, Timeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.BaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("openrouter: build models request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: fetch models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("openrouter: read models response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter: models endpoint returned %d", resp.StatusCode)
	}

	var decoded struct {
		Data []CatalogEntry `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("openrouter: decode models response: %w", err)
	}
	for i := range decoded.Data {
		if decoded.Data[i].Name == "" {
			decoded.Data[i].Name = decoded.Data[i].ID
		}
	}
	return decoded.Data, nil
}

// GroupByProvider buckets catalog entries by the provider prefix of their id,
// returning provider names sorted alphabetically and models sorted by name
// within each bucket.
func GroupByProvider(entries []CatalogEntry) ([]string, map[string][]CatalogEntry) {
	groups := map[string][]CatalogEntry{}
	for _, e := range entries {
		provider := "Other"
		if idx := strings.Index(e.ID, "/"); idx > 0 {
			provider = e.ID[:idx]
		}
		groups[provider] = append(groups[provider], e)
	}
	providers := make([]string, 0, len(groups))
	for p := range groups {
		providers = append(providers, p)
		sort.Slice(groups[p], func(i, j int) bool { return groups[p][i].Name < groups[p][j].Name })
	}
	sort.Strings(providers)
	return providers, groups
}

// FormatPricing renders a pricing pair as a per-million-token display string,
// or "Free" when both rates are zero.
func FormatPricing(p Pricing) string {
	promptCost, err1 := strconv.ParseFloat(p.Prompt, 64)
	completionCost, err2 := strconv.ParseFloat(p.Completion, 64)
	if err1 != nil || err2 != nil {
		return ""
	}
	if promptCost == 0 && completionCost == 0 {
		return "Free"
	}
	return fmt.Sprintf("%s/%s per 1M", formatPerMillion(promptCost), formatPerMillion(completionCost))
}

func formatPerMillion(perToken float64) string {
	perMillion := perToken * 1_000_000
	if perMillion < 0.01 {
		return fmt.Sprintf("$%.4f", perMillion)
	}
	return fmt.Sprintf("$%.2f", perMillion)
}
