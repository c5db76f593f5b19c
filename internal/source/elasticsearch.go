package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

// esPageSize caps one search page; large ranges should move to scroll or
// search_after before hitting it.
const esPageSize = 10000

// ElasticsearchSource reads event relations from an Elasticsearch events
// index.
type ElasticsearchSource struct {
	client          *es.Client
	index           string
	conversionEvent string
	logger          Logger
}

// NewElasticsearchSource creates an Elasticsearch-backed event source.
func NewElasticsearchSource(cfg config.SearchConfig, conversionEvent string, logger Logger) (*ElasticsearchSource, error) {
	client, err := es.NewClient(es.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &ElasticsearchSource{
		client:          client,
		index:           cfg.Index,
		conversionEvent: conversionEvent,
		logger:          logger,
	}, nil
}

// FunnelEvents reads all events within the date range.
func (s *ElasticsearchSource) FunnelEvents(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	return s.search(ctx, from, to, "")
}

// PageSequences reads page_view rows within the date range.
func (s *ElasticsearchSource) PageSequences(ctx context.Context, from, to time.Time) ([]domain.PageView, error) {
	events, err := s.search(ctx, from, to, "page_view")
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
func (s *ElasticsearchSource) ConversionEvents(ctx context.Context, from, to time.Time) ([]domain.ConversionEvent, error) {
	events, err := s.search(ctx, from, to, s.conversionEvent)
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

// search runs a date-range query, optionally filtered to one event name,
// sorted by user and timestamp.
func (s *ElasticsearchSource) search(ctx context.Context, from, to time.Time, eventName string) ([]domain.Event, error) {
	filters := []map[string]interface{}{
		{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}
	if eventName != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{
				"event_name": eventName,
			},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
		"size": esPageSize,
		"sort": []map[string]interface{}{
			{"user_id": map[string]interface{}{"order": "asc"}},
			{"timestamp": map[string]interface{}{"order": "asc"}},
		},
	}

	queryBytes, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(queryBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source domain.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	events := make([]domain.Event, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		events = append(events, hit.Source)
	}

	s.logger.Debug("events loaded from elasticsearch",
		"index", s.index,
		"rows", len(events))

	return events, nil
}
