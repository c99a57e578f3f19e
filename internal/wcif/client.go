package wcif

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized signals that the upstream rejected the bearer token. The
// caller is expected to discard the cached credential.
var ErrUnauthorized = errors.New("wcif: unauthorized")

// Client talks to the WCA competition API. A zero token on reads selects the
// public WCIF variant; writes always require one.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetCompetition fetches the full competition record. With a token the
// authenticated endpoint is used, which includes fields the public one omits.
func (c *Client) GetCompetition(ctx context.Context, competitionID, token string) (*Competition, error) {
	url := fmt.Sprintf("%s/competitions/%s/wcif/public", c.baseURL, competitionID)
	if token != "" {
		url = fmt.Sprintf("%s/competitions/%s/wcif", c.baseURL, competitionID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching competition %s: %w", competitionID, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var comp Competition
	if err := json.NewDecoder(resp.Body).Decode(&comp); err != nil {
		return nil, fmt.Errorf("decoding competition %s: %w", competitionID, err)
	}
	return &comp, nil
}

// UpdateExtensions replaces the record's entire extension list. The WCIF
// PATCH endpoint only supports whole-field replacement, so callers must send
// the full merged list, unrelated entries included.
func (c *Client) UpdateExtensions(ctx context.Context, competitionID, token string, extensions []Extension) error {
	body, err := json.Marshal(map[string][]Extension{"extensions": extensions})
	if err != nil {
		return fmt.Errorf("encoding extensions: %w", err)
	}

	url := fmt.Sprintf("%s/competitions/%s/wcif", c.baseURL, competitionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("patching competition %s: %w", competitionID, err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w (HTTP %d)", ErrUnauthorized, resp.StatusCode)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
}
