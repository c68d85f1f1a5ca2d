package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type remoteRetriever struct {
	endpoint string
	key      string
	httpc    *http.Client
}

// NewRemoteRetriever queries a retrieval service that accepts
// POST {endpoint}/search {"query","k"} and answers {"results":[Snippet...]}.
func NewRemoteRetriever(endpoint, key string) Retriever {
	return &remoteRetriever{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		httpc:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *remoteRetriever) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	b, err := json.Marshal(map[string]any{"query": query, "k": k})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/search", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.key != "" {
		req.Header.Set("Authorization", "Bearer "+r.key)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("retrieve: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Results []Snippet `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("retrieve: decode: %w", err)
	}
	if k > 0 && len(out.Results) > k {
		out.Results = out.Results[:k]
	}
	return out.Results, nil
}
