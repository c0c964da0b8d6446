// Package nlp is a client for the named-entity recognition service used
// as the last resort when no full name is found by text heuristics.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pravodoc/pravodoc-backend/internal/passport/extract"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

// Client calls the NER service. It implements extract.NameRecognizer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type namesRequest struct {
	Text string `json:"text"`
}

type namesResponse struct {
	Names []extract.NameCandidate `json:"names"`
}

// Names posts text to the service and returns the person names it found.
func (c *Client) Names(ctx context.Context, text string) ([]extract.NameCandidate, error) {
	payload, err := json.Marshal(namesRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("nlp: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/names", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("nlp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("NER service request failed")
		return nil, fmt.Errorf("nlp: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("nlp: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("NER service returned an error")
		return nil, fmt.Errorf("nlp: service returned %d: %s", resp.StatusCode, string(body))
	}

	var out namesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("nlp: parse response: %w", err)
	}
	c.log.Debug().Int("candidates", len(out.Names)).Msg("NER candidates received")
	return out.Names, nil
}
