package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskhub/internal/propagation"
	id "taskhub/pkg/domain"
	"taskhub/pkg/platform/sentinel"
)

// Client verifies membership against the organization service. The call is
// awaited inline by the gate, so the timeout here bounds request latency.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a membership client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &propagation.Transport{},
		},
	}
}

type memberResponse struct {
	Member bool `json:"member"`
}

func (c *Client) IsMember(ctx context.Context, userID id.UserID, orgID id.OrgID) (bool, error) {
	url := fmt.Sprintf("%s/api/org/%s/member/%s", c.baseURL, orgID, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build membership request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("membership service unreachable: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// Unknown org or user is simply not a membership.
		return false, nil
	default:
		return false, fmt.Errorf("membership check returned status %d", resp.StatusCode)
	}

	var body memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode membership response: %w", err)
	}
	return body.Member, nil
}
