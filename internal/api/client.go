// Package api is the HTTP client for the meeting backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

// TransportError means the backend could not be reached or answered
// with something that is not the expected JSON
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError is a non-2xx answer carrying the backend's {error} message
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// Client talks to the meeting backend over HTTP
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListMeetings lists meetings, filtered by search when non-empty
func (c *Client) ListMeetings(ctx context.Context, search string) (*types.MeetingList, error) {
	path := "/api/meetings"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}

	var out types.MeetingList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Meetings == nil {
		out.Meetings = []types.MeetingSummary{}
	}
	return &out, nil
}

// GetMeeting fetches a full meeting record
func (c *Client) GetMeeting(ctx context.Context, id int64) (*types.Meeting, error) {
	var out types.Meeting
	if err := c.do(ctx, http.MethodGet, meetingPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMeeting saves a new meeting and returns it with its assigned id
func (c *Client) CreateMeeting(ctx context.Context, in types.MeetingInput) (*types.Meeting, error) {
	var out types.MeetingResponse
	if err := c.do(ctx, http.MethodPost, "/api/meetings", in, &out); err != nil {
		return nil, err
	}
	if out.Meeting == nil {
		return nil, &TransportError{Op: "create meeting", Err: fmt.Errorf("response has no meeting")}
	}
	return out.Meeting, nil
}

// UpdateMeeting overwrites an existing meeting
func (c *Client) UpdateMeeting(ctx context.Context, id int64, in types.MeetingInput) (*types.Meeting, error) {
	var out types.MeetingResponse
	if err := c.do(ctx, http.MethodPut, meetingPath(id), in, &out); err != nil {
		return nil, err
	}
	if out.Meeting == nil {
		return nil, &TransportError{Op: "update meeting", Err: fmt.Errorf("response has no meeting")}
	}
	return out.Meeting, nil
}

// DeleteMeeting removes a meeting
func (c *Client) DeleteMeeting(ctx context.Context, id int64) error {
	var out types.MeetingResponse
	return c.do(ctx, http.MethodDelete, meetingPath(id), nil, &out)
}

// Summarize asks the backend to summarize (and auto-save) a transcript
func (c *Client) Summarize(ctx context.Context, req types.SummarizeRequest) (*types.SummarizeResponse, error) {
	var out types.SummarizeResponse
	if err := c.do(ctx, http.MethodPost, "/summarize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks that the backend answers /health
func (c *Client) Health(ctx context.Context) error {
	var out map[string]any
	return c.do(ctx, http.MethodGet, "/health", nil, &out)
}

func meetingPath(id int64) string {
	return "/api/meetings/" + strconv.FormatInt(id, 10)
}

// do executes a JSON request and decodes the response into out
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		var e types.ErrorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
			if err != nil && !json.Valid(data) {
				return &TransportError{Op: op, Err: fmt.Errorf("HTTP %d with non-JSON body", resp.StatusCode)}
			}
			return &BackendError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &BackendError{Status: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
