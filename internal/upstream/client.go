// Package upstream talks to the clinical backend REST API that owns
// appointment records. All appointments shown by the calendar service
// are fetched through this client; mutations are pushed back through it.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"caredesk/internal/metrics"
	"caredesk/internal/model"
)

// wireTimeLayout is the ISO-8601 local datetime format used on the wire.
// Instants are timezone-naive; they are interpreted in local time.
const wireTimeLayout = "2006-01-02T15:04:05"

// Client is an HTTP client for the backend appointments API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for baseURL authenticated by apiKey.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit caps outbound requests per second.
func (c *Client) UseRateLimit(requestsPerSecond float64) {
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// appointmentDTO is the wire shape of an appointment record.
type appointmentDTO struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// FetchAppointments returns the appointments starting in [from, to),
// parsed and validated at this boundary so the calendar core never sees
// an unknown tag or inverted window.
func (c *Client) FetchAppointments(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	endpoint := fmt.Sprintf("%s/api/v1/appointments?from=%s&to=%s",
		c.baseURL,
		url.QueryEscape(from.Format(wireTimeLayout)),
		url.QueryEscape(to.Format(wireTimeLayout)),
	)
	cacheKey := fmt.Sprintf("appointments:%s:%s", from.Format(wireTimeLayout), to.Format(wireTimeLayout))

	var wrap struct {
		Appointments []appointmentDTO `json:"appointments"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		metrics.IncUpstreamCache("hit")
		return parseAppointments(wrap.Appointments)
	}
	metrics.IncUpstreamCache("miss")

	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}

	appts, err := parseAppointments(wrap.Appointments)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return appts, nil
}

// statusUpdateRequest is the body for status transition pushes.
type statusUpdateRequest struct {
	Status string `json:"status"`
}

// PushStatus pushes a status transition back to the backend.
func (c *Client) PushStatus(ctx context.Context, appointmentID string, status model.Status) error {
	endpoint := fmt.Sprintf("%s/api/v1/appointments/%s/status", c.baseURL, url.PathEscape(appointmentID))
	return c.doPost(ctx, endpoint, statusUpdateRequest{Status: string(status)}, nil)
}

// rescheduleRequest is the body for reschedule pushes.
type rescheduleRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PushReschedule pushes a changed appointment window back to the backend.
func (c *Client) PushReschedule(ctx context.Context, appointmentID string, start, end time.Time) error {
	endpoint := fmt.Sprintf("%s/api/v1/appointments/%s/reschedule", c.baseURL, url.PathEscape(appointmentID))
	body := rescheduleRequest{
		Start: start.Format(wireTimeLayout),
		End:   end.Format(wireTimeLayout),
	}
	return c.doPost(ctx, endpoint, body, nil)
}

func parseAppointments(dtos []appointmentDTO) ([]model.Appointment, error) {
	appts := make([]model.Appointment, 0, len(dtos))
	for _, d := range dtos {
		a, err := parseAppointment(d)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, nil
}

func parseAppointment(d appointmentDTO) (model.Appointment, error) {
	var a model.Appointment
	var err error

	if a.Type, err = model.ParseType(d.Type); err != nil {
		return a, fmt.Errorf("appointment %s: %w", d.ID, err)
	}
	if a.Status, err = model.ParseStatus(d.Status); err != nil {
		return a, fmt.Errorf("appointment %s: %w", d.ID, err)
	}
	if a.StartTime, err = time.ParseInLocation(wireTimeLayout, d.Start, time.Local); err != nil {
		return a, fmt.Errorf("appointment %s: parse start %q: %w", d.ID, d.Start, err)
	}
	if a.EndTime, err = time.ParseInLocation(wireTimeLayout, d.End, time.Local); err != nil {
		return a, fmt.Errorf("appointment %s: parse end %q: %w", d.ID, d.End, err)
	}

	a.ID = d.ID
	a.PatientID = d.PatientID
	a.PatientName = d.PatientName
	a.Title = d.Title
	a.Description = d.Description
	a.Location = d.Location
	a.Notes = d.Notes

	if err = a.Validate(); err != nil {
		return a, err
	}
	return a, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, value any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream GET %s: status %d: %s", endpoint, resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) doPost(ctx context.Context, endpoint string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream POST %s: status %d: %s", endpoint, resp.StatusCode, respBody)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
