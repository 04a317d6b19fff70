package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"garmin-zones/internal/observability"
	"garmin-zones/internal/zones"
)

const DefaultBaseURL = "https://connectapi.garmin.com"

var (
	// ErrAPI is returned when the provider answers with a non-200 status
	ErrAPI = errors.New("garmin API error")

	// ErrMalformedResponse is returned when a response is missing required fields
	ErrMalformedResponse = errors.New("malformed garmin response")
)

// Client is a Garmin Connect API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewClient creates a new Garmin Connect client authenticating with tokenSource.
// An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, tokenSource oauth2.TokenSource) *Client {
	return newClient(baseURL, oauth2.NewClient(context.Background(), tokenSource))
}

func newClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  httpClient,
		rateLimiter: NewRateLimiter(),
	}
}

// ActivitiesForDate fetches the activities recorded on a calendar date (YYYY-MM-DD)
func (c *Client) ActivitiesForDate(ctx context.Context, date string) ([]Activity, error) {
	var resp activitiesForDate
	if err := c.getJSON(ctx, "activities", "/mobile-gateway/heartRate/forDate/"+url.PathEscape(date), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching activities for %s: %w", date, err)
	}
	if resp.ActivitiesForDay == nil {
		return nil, fmt.Errorf("activities for %s: %w: missing ActivitiesForDay", date, ErrMalformedResponse)
	}

	for i := range resp.ActivitiesForDay.Payload {
		if err := resp.ActivitiesForDay.Payload[i].Validate(); err != nil {
			return nil, fmt.Errorf("activities for %s: %w", date, err)
		}
	}
	return resp.ActivitiesForDay.Payload, nil
}

// TimeInZones fetches the heart rate time-in-zone breakdown for an activity
func (c *Client) TimeInZones(ctx context.Context, activityID int64) ([]ZoneTime, error) {
	var breakdown []ZoneTime
	path := fmt.Sprintf("/activity-service/activity/%d/hrTimeInZones", activityID)
	if err := c.getJSON(ctx, "hr_time_in_zones", path, nil, &breakdown); err != nil {
		return nil, fmt.Errorf("fetching zones for activity %d: %w", activityID, err)
	}

	for i := range breakdown {
		if err := breakdown[i].Validate(); err != nil {
			return nil, fmt.Errorf("zones for activity %d: %w", activityID, err)
		}
	}
	return breakdown, nil
}

// DailyHeartRate fetches the all-day heart rate samples for a date
func (c *Client) DailyHeartRate(ctx context.Context, date string) (*DailyHeartRate, error) {
	params := url.Values{}
	params.Set("date", date)

	var hr DailyHeartRate
	if err := c.getJSON(ctx, "daily_heart_rate", "/wellness-service/wellness/dailyHeartRate", params, &hr); err != nil {
		return nil, fmt.Errorf("fetching heart rate for %s: %w", date, err)
	}
	return &hr, nil
}

// HeartRateSamples converts the raw series into timestamped samples in the local zone
func (d *DailyHeartRate) HeartRateSamples() []zones.Sample {
	if d == nil {
		return nil
	}
	samples := make([]zones.Sample, 0, len(d.HeartRateValues))
	for _, v := range d.HeartRateValues {
		if v[0] == nil {
			continue
		}
		s := zones.Sample{Time: time.UnixMilli(int64(*v[0])).Local()}
		if v[1] != nil {
			bpm := int(*v[1])
			s.HR = &bpm
		}
		samples = append(samples, s)
	}
	return samples
}

// PausedUntil reports when the client will resume sending requests after the
// provider asked it to back off. The zero time means it is not paused.
func (c *Client) PausedUntil() time.Time {
	return c.rateLimiter.PausedUntil()
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, v any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.get(ctx, path, params)
	if err != nil {
		observability.RecordProviderRequest(endpoint, "error")
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		observability.RecordProviderRequest(endpoint, "decode_error")
		return fmt.Errorf("%w: decoding %s: %v", ErrMalformedResponse, endpoint, err)
	}
	observability.RecordProviderRequest(endpoint, "ok")
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("NK", "NT")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.rateLimiter.Observe(resp.StatusCode, resp.Header)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w %d: %s", ErrAPI, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp, nil
}
