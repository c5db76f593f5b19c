package processor

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/domain"
	"github.com/jonesrussell/funnel-analyzer/internal/funnel"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}

func testEvents(users int) []domain.Event {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	events := make([]domain.Event, 0, users*3)
	for i := 0; i < users; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		events = append(events,
			domain.Event{UserID: id, SessionID: "s", Name: "session_start", PagePath: "/", Source: "google", Medium: "organic", Timestamp: base},
			domain.Event{UserID: id, SessionID: "s", Name: "page_view", PagePath: "/posts/1", Source: "google", Medium: "organic", Timestamp: base.Add(time.Minute)},
			domain.Event{UserID: id, SessionID: "s", Name: "page_view", PagePath: "/pricing", Source: "google", Medium: "organic", Timestamp: base.Add(2 * time.Minute)},
		)
	}
	return events
}

func newTestBatch(concurrency int) (*BatchClassifier, *funnel.StageClassifier) {
	cfg := config.Default().Funnel
	classifier := funnel.NewStageClassifier(cfg, funnel.NewMatcher(cfg), &mockLogger{})
	return NewBatchClassifier(classifier, concurrency, nil, &mockLogger{}), classifier
}

func TestBatchClassifier_MatchesSequential(t *testing.T) {
	batch, classifier := newTestBatch(4)
	events := testEvents(20)

	parallel := batch.Classify(context.Background(), append([]domain.Event{}, events...))
	sequential := classifier.Classify(append([]domain.Event{}, events...))

	if !reflect.DeepEqual(parallel, sequential) {
		t.Error("parallel classification differs from sequential")
	}
}

func TestBatchClassifier_Deterministic(t *testing.T) {
	batch, _ := newTestBatch(8)
	events := testEvents(30)

	first := batch.Classify(context.Background(), append([]domain.Event{}, events...))
	second := batch.Classify(context.Background(), append([]domain.Event{}, events...))

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated runs over the same input differ")
	}
}

func TestBatchClassifier_EmptyInput(t *testing.T) {
	batch, _ := newTestBatch(4)

	out := batch.Classify(context.Background(), nil)
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}
}
