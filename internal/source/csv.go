package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// CSVSource reads event relations from an exported events CSV. Columns are
// header-mapped; optional columns may be absent entirely. The date range
// filter is applied while reading.
type CSVSource struct {
	path            string
	conversionEvent string
	logger          Logger
}

// NewCSVSource creates a CSV-backed event source.
func NewCSVSource(path, conversionEvent string, logger Logger) *CSVSource {
	return &CSVSource{path: path, conversionEvent: conversionEvent, logger: logger}
}

// FunnelEvents reads all events within the date range.
func (s *CSVSource) FunnelEvents(_ context.Context, from, to time.Time) ([]domain.Event, error) {
	return s.readEvents(from, to, "")
}

// PageSequences reads page_view rows within the date range.
func (s *CSVSource) PageSequences(_ context.Context, from, to time.Time) ([]domain.PageView, error) {
	events, err := s.readEvents(from, to, "page_view")
	if err != nil {
		return nil, err
	}
	views := make([]domain.PageView, 0, len(events))
	for _, ev := range events {
		views = append(views, domain.PageView{
			UserID:    ev.UserID,
			SessionID: ev.SessionID,
			PagePath:  ev.PagePath,
			Timestamp: ev.Timestamp,
		})
	}
	return views, nil
}

// ConversionEvents reads conversion-event rows within the date range.
func (s *CSVSource) ConversionEvents(_ context.Context, from, to time.Time) ([]domain.ConversionEvent, error) {
	events, err := s.readEvents(from, to, s.conversionEvent)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ConversionEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, domain.ConversionEvent{
			UserID:    ev.UserID,
			SessionID: ev.SessionID,
			Name:      ev.Name,
			PagePath:  ev.PagePath,
			Source:    ev.Source,
			Medium:    ev.Medium,
			Timestamp: ev.Timestamp,
		})
	}
	return out, nil
}

// readEvents streams the file, keeping rows whose event name matches filter
// (empty filter keeps all) and whose timestamp falls inside [from, to].
func (s *CSVSource) readEvents(from, to time.Time, filter string) ([]domain.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open events csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"user_id", "session_id", "event_name", "page_path", "source", "medium", "timestamp"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("events csv missing column %q", required)
		}
	}

	var events []domain.Event
	dropped := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		name := row[col["event_name"]]
		if filter != "" && name != filter {
			continue
		}

		ts, err := parseTimestamp(row[col["timestamp"]])
		if err != nil {
			dropped++
			continue
		}
		if ts.Before(from) || ts.After(to) {
			continue
		}

		ev := domain.Event{
			UserID:    row[col["user_id"]],
			SessionID: row[col["session_id"]],
			Name:      name,
			PagePath:  row[col["page_path"]],
			Source:    row[col["source"]],
			Medium:    row[col["medium"]],
			Timestamp: ts,
		}
		if i, ok := col["device_category"]; ok {
			ev.DeviceCategory = row[i]
		}
		if i, ok := col["country"]; ok {
			ev.Country = row[i]
		}
		if i, ok := col["engagement_time_msec"]; ok && row[i] != "" {
			if ms, err := strconv.ParseInt(row[i], 10, 64); err == nil {
				ev.EngagementMs = ms
			}
		}
		events = append(events, ev)
	}

	if dropped > 0 {
		s.logger.Warn("dropped rows with unparsable timestamps", "rows", dropped, "file", s.path)
	}
	return events, nil
}
