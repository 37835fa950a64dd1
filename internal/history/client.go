package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/propagation"
	id "taskhub/pkg/domain"
	"taskhub/pkg/platform/sentinel"
)

// Client calls the remote task history service. Outbound requests carry the
// allow-listed headers captured from the inbound request via the propagation
// transport.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a history client for the given base URL. The timeout
// bounds each write attempt; there are no retries.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &propagation.Transport{},
		},
	}
}

type addPayload struct {
	TaskID        string `json:"taskId"`
	EventName     string `json:"eventName"`
	PreviousState string `json:"previousState"`
	NewState      string `json:"newState"`
	Author        string `json:"author"`
}

type recordPayload struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"taskId"`
	EventName     string    `json:"eventName"`
	PreviousState string    `json:"previousState"`
	NewState      string    `json:"newState"`
	Author        string    `json:"author"`
	CreateDate    time.Time `json:"createDate"`
	ModifyDate    time.Time `json:"modifyDate"`
}

// Add records one task mutation. A single attempt: the caller decides what a
// failure means (for the audit recorder, log and move on).
func (c *Client) Add(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(addPayload{
		TaskID:        entry.TaskID.String(),
		EventName:     entry.Event,
		PreviousState: entry.PreviousState,
		NewState:      entry.NewState,
		Author:        entry.Author.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/thistory/add", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build history request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("history service unreachable: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history add returned status %d", resp.StatusCode)
	}
	return nil
}

// ListByTask fetches the recorded history for a task, ordered by create date
// ascending. An empty slice means no records exist.
func (c *Client) ListByTask(ctx context.Context, taskID id.TaskID) ([]Record, error) {
	url := fmt.Sprintf("%s/api/thistory/info/%s", c.baseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history service unreachable: %w", sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return []Record{}, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("history info returned status %d", resp.StatusCode)
	}

	var payload []recordPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}

	records := make([]Record, 0, len(payload))
	for _, p := range payload {
		rec, err := p.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p recordPayload) toRecord() (Record, error) {
	recID, err := uuid.Parse(p.ID)
	if err != nil {
		return Record{}, fmt.Errorf("parse record id: %w", err)
	}
	taskID, err := id.ParseTaskID(p.TaskID)
	if err != nil {
		return Record{}, err
	}
	author, err := id.ParseUserID(p.Author)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:            recID,
		TaskID:        taskID,
		Event:         p.EventName,
		PreviousState: p.PreviousState,
		NewState:      p.NewState,
		Author:        author,
		CreateDate:    p.CreateDate,
		ModifyDate:    p.ModifyDate,
	}, nil
}
