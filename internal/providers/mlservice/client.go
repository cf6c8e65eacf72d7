// Package mlservice adapts the mood classifier HTTP service to
// ports.Classifier.
package mlservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client calls the classifier's predict endpoint. The service accepts a mood
// and answers with a list of suggestions.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5001"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type predictRequest struct {
	Mood string `json:"mood"`
}

type predictResponse struct {
	Suggestions []string `json:"suggestions"`
}

// Suggest asks the classifier for mood-based suggestions. A missing
// suggestions field is an empty result, not an error.
func (c *Client) Suggest(ctx context.Context, mood string) ([]string, error) {
	body, err := json.Marshal(predictRequest{Mood: mood})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding classifier response: %w", err)
	}
	return parsed.Suggestions, nil
}
