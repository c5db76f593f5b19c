// Package source provides the event-retrieval layer: the analytics
// reporting-API client, CSV exports, the SQL event warehouse and the
// Elasticsearch event index. Each source returns complete in-memory
// relations; retries and pagination live here, never in the analysis core.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Client retrieves event relations from an analytics reporting API. Requests
// are rate limited; the API enforces per-property quotas.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	propertyID      string
	token           string
	rowLimit        int
	conversionEvent string
	limiter         *rate.Limiter
	logger          Logger
}

// NewClient creates a reporting-API client from the analytics configuration.
// conversionEvent is the event name the ConversionEvents relation filters on.
func NewClient(cfg config.AnalyticsConfig, conversionEvent string, logger Logger) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		baseURL:         cfg.BaseURL,
		propertyID:      cfg.PropertyID,
		token:           cfg.Token,
		rowLimit:        cfg.RowLimit,
		conversionEvent: conversionEvent,
		limiter:         rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
		logger:          logger,
	}
}

// reportRequest is the wire format of one report run.
type reportRequest struct {
	PropertyID  string    `json:"property_id"`
	Dimensions  []string  `json:"dimensions"`
	DateRange   dateRange `json:"date_range"`
	EventFilter string    `json:"event_filter,omitempty"`
	Limit       int       `json:"limit"`
}

type dateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// reportResponse carries rows of positional dimension values, matching the
// dimension order of the request.
type reportResponse struct {
	Rows []struct {
		DimensionValues []string `json:"dimension_values"`
	} `json:"rows"`
}

var funnelDimensions = []string{
	"user_id", "session_id", "event_name", "page_path",
	"source", "medium", "timestamp",
	"device_category", "country", "engagement_time_msec",
}

// FunnelEvents retrieves the full event relation for the date range.
func (c *Client) FunnelEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	resp, err := c.runReport(ctx, reportRequest{
		PropertyID: c.propertyID,
		Dimensions: funnelDimensions,
		DateRange:  dateRange{Start: from.Format("2006-01-02"), End: to.Format("2006-01-02")},
		Limit:      c.rowLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("funnel events report: %w", err)
	}

	events := make([]domain.Event, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		ev, ok := c.rowToEvent(row.DimensionValues)
		if !ok {
			continue
		}
		events = append(events, ev)
	}

	c.logger.Debug("funnel events retrieved", "rows", len(events))
	return events, nil
}

// PageSequences retrieves the page-view relation for the date range.
func (c *Client) PageSequences(ctx context.Context, from, to time.Time) ([]domain.PageView, error) {
	resp, err := c.runReport(ctx, reportRequest{
		PropertyID:  c.propertyID,
		Dimensions:  []string{"user_id", "session_id", "page_path", "timestamp"},
		DateRange:   dateRange{Start: from.Format("2006-01-02"), End: to.Format("2006-01-02")},
		EventFilter: "page_view",
		Limit:       c.rowLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("page sequences report: %w", err)
	}

	views := make([]domain.PageView, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		v := row.DimensionValues
		if len(v) < 4 {
			continue
		}
		ts, err := parseTimestamp(v[3])
		if err != nil {
			continue
		}
		views = append(views, domain.PageView{
			UserID:    v[0],
			SessionID: v[1],
			PagePath:  v[2],
			Timestamp: ts,
		})
	}
	return views, nil
}

// ConversionEvents retrieves occurrences of the configured conversion event.
func (c *Client) ConversionEvents(ctx context.Context, from, to time.Time) ([]domain.ConversionEvent, error) {
	resp, err := c.runReport(ctx, reportRequest{
		PropertyID:  c.propertyID,
		Dimensions:  []string{"user_id", "session_id", "event_name", "page_path", "source", "medium", "timestamp"},
		DateRange:   dateRange{Start: from.Format("2006-01-02"), End: to.Format("2006-01-02")},
		EventFilter: c.conversionEvent,
		Limit:       c.rowLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("conversion events report: %w", err)
	}

	out := make([]domain.ConversionEvent, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		v := row.DimensionValues
		if len(v) < 7 {
			continue
		}
		ts, err := parseTimestamp(v[6])
		if err != nil {
			continue
		}
		out = append(out, domain.ConversionEvent{
			UserID:    v[0],
			SessionID: v[1],
			Name:      v[2],
			PagePath:  v[3],
			Source:    v[4],
			Medium:    v[5],
			Timestamp: ts,
		})
	}
	return out, nil
}

// runReport executes one rate-limited report request.
func (c *Client) runReport(ctx context.Context, report reportRequest) (*reportResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reports:run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute report request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report request failed: status %d", resp.StatusCode)
	}

	var out reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode report response: %w", err)
	}
	return &out, nil
}

// rowToEvent maps one positional row to an Event. Rows with unparsable
// mandatory fields are dropped; optional fields degrade to zero values.
func (c *Client) rowToEvent(v []string) (domain.Event, bool) {
	if len(v) < 7 {
		return domain.Event{}, false
	}
	ts, err := parseTimestamp(v[6])
	if err != nil {
		c.logger.Warn("dropping row with bad timestamp", "value", v[6])
		return domain.Event{}, false
	}

	ev := domain.Event{
		UserID:    v[0],
		SessionID: v[1],
		Name:      v[2],
		PagePath:  v[3],
		Source:    v[4],
		Medium:    v[5],
		Timestamp: ts,
	}
	if len(v) > 7 {
		ev.DeviceCategory = v[7]
	}
	if len(v) > 8 {
		ev.Country = v[8]
	}
	if len(v) > 9 && v[9] != "" {
		if ms, err := strconv.ParseInt(v[9], 10, 64); err == nil {
			ev.EngagementMs = ms
		}
	}
	return ev, true
}

func parseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
