package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hutbook/core/logger"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// ErrEventNotFound is returned when Google reports the event is gone
// (deleted on the remote side).
var ErrEventNotFound = errors.New("google: event not found")

type Calendar struct {
	ID      string
	Summary string
	Primary bool
}

// Event is a concrete-timed Google Calendar event. AllDay events carry only
// a civil date and are excluded from sync by the caller.
type Event struct {
	ID     string
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
}

type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Timezone    string
}

// Client talks to the Google Calendar REST API directly.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient() *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL points the client at a different API host, used in tests.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// ListCalendars returns the calendars visible to the token's account.
func (c *Client) ListCalendars(ctx context.Context, accessToken string) ([]Calendar, error) {
	body, err := c.do(ctx, accessToken, "GET", c.baseURL+"/users/me/calendarList", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []struct {
			ID      string `json:"id"`
			Summary string `json:"summary"`
			Primary bool   `json:"primary"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse calendar list: %w", err)
	}

	calendars := make([]Calendar, 0, len(payload.Items))
	for _, item := range payload.Items {
		calendars = append(calendars, Calendar{ID: item.ID, Summary: item.Summary, Primary: item.Primary})
	}
	return calendars, nil
}

// ListEvents returns single (non-recurring-expanded-to-single) events in
// [timeMin, timeMax), following pagination. Cancelled events are skipped.
func (c *Client) ListEvents(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	var events []Event
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("singleEvents", "true")
		params.Set("orderBy", "startTime")
		params.Set("timeMin", timeMin.Format(time.RFC3339))
		params.Set("timeMax", timeMax.Format(time.RFC3339))
		params.Set("maxResults", "250")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		apiURL := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(calendarID), params.Encode())
		body, err := c.do(ctx, accessToken, "GET", apiURL, nil)
		if err != nil {
			return nil, err
		}

		var payload struct {
			Items []struct {
				ID      string `json:"id"`
				Status  string `json:"status"`
				Summary string `json:"summary"`
				Start   struct {
					DateTime string `json:"dateTime"`
					Date     string `json:"date"`
				} `json:"start"`
				End struct {
					DateTime string `json:"dateTime"`
					Date     string `json:"date"`
				} `json:"end"`
			} `json:"items"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("failed to parse events: %w", err)
		}

		for _, item := range payload.Items {
			if item.Status == "cancelled" {
				continue
			}
			ev := Event{ID: item.ID, Title: item.Summary}
			if item.Start.DateTime == "" || item.End.DateTime == "" {
				// Date-only start/end means an all-day event.
				ev.AllDay = true
				events = append(events, ev)
				continue
			}
			start, err1 := time.Parse(time.RFC3339, item.Start.DateTime)
			end, err2 := time.Parse(time.RFC3339, item.End.DateTime)
			if err1 != nil || err2 != nil {
				logger.Warn("GoogleClient:ListEvents:SkipUnparsable", "event_id", item.ID)
				continue
			}
			ev.Start = start
			ev.End = end
			events = append(events, ev)
		}

		if payload.NextPageToken == "" {
			return events, nil
		}
		pageToken = payload.NextPageToken
	}
}

// CreateEvent creates an event and returns its Google event ID.
func (c *Client) CreateEvent(ctx context.Context, accessToken, calendarID string, input EventInput) (string, error) {
	apiURL := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(calendarID))
	body, err := c.do(ctx, accessToken, "POST", apiURL, eventPayload(input))
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to parse created event: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("no event id in response")
	}
	return created.ID, nil
}

func (c *Client) UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, input EventInput) error {
	apiURL := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(calendarID), url.PathEscape(eventID))
	_, err := c.do(ctx, accessToken, "PUT", apiURL, eventPayload(input))
	return err
}

// DeleteEvent removes an event. Deleting an already-deleted event is success.
func (c *Client) DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	apiURL := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(calendarID), url.PathEscape(eventID))
	_, err := c.do(ctx, accessToken, "DELETE", apiURL, nil)
	if errors.Is(err, ErrEventNotFound) {
		return nil
	}
	return err
}

func eventPayload(input EventInput) map[string]any {
	tz := input.Timezone
	if tz == "" {
		tz = "UTC"
	}
	payload := map[string]any{
		"summary": input.Title,
		"start": map[string]string{
			"dateTime": input.Start.Format(time.RFC3339),
			"timeZone": tz,
		},
		"end": map[string]string{
			"dateTime": input.End.Format(time.RFC3339),
			"timeZone": tz,
		},
	}
	if input.Description != "" {
		payload["description"] = input.Description
	}
	return payload
}

func (c *Client) do(ctx context.Context, accessToken, method, apiURL string, payload map[string]any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, ErrEventNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		logger.Error("GoogleClient:APIError", "method", method, "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("google calendar API error: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
