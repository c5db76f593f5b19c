package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCSVSource_FullColumns(t *testing.T) {
	csv := `user_id,session_id,event_name,page_path,source,medium,timestamp,device_category,country,engagement_time_msec
u1,s1,session_start,/,google,organic,2025-06-02T10:00:00Z,mobile,CA,
u1,s1,user_engagement,/posts/1,google,organic,2025-06-02T10:01:00Z,mobile,CA,20000
u2,s2,sign_up_complete,/signup,(direct),(none),2025-06-02T11:00:00Z,desktop,CA,
`
	src := NewCSVSource(writeCSV(t, csv), "sign_up_complete", &mockLogger{})

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	events, err := src.FunnelEvents(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].EngagementMs != 20000 {
		t.Errorf("expected engagement 20000, got %d", events[1].EngagementMs)
	}
	if events[0].DeviceCategory != "mobile" {
		t.Errorf("expected device mobile, got %q", events[0].DeviceCategory)
	}

	conversions, err := src.ConversionEvents(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conversions) != 1 || conversions[0].UserID != "u2" {
		t.Errorf("expected u2's conversion only, got %+v", conversions)
	}
}

func TestCSVSource_OptionalColumnsAbsent(t *testing.T) {
	csv := `user_id,session_id,event_name,page_path,source,medium,timestamp
u1,s1,page_view,/,google,organic,2025-06-02T10:00:00Z
`
	src := NewCSVSource(writeCSV(t, csv), "sign_up_complete", &mockLogger{})

	events, err := src.FunnelEvents(context.Background(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("missing optional columns must be tolerated: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].DeviceCategory != "" || events[0].EngagementMs != 0 {
		t.Errorf("expected zero optional fields, got %+v", events[0])
	}
}

func TestCSVSource_MissingMandatoryColumn(t *testing.T) {
	csv := `user_id,event_name,page_path,source,medium,timestamp
u1,page_view,/,google,organic,2025-06-02T10:00:00Z
`
	src := NewCSVSource(writeCSV(t, csv), "sign_up_complete", &mockLogger{})

	_, err := src.FunnelEvents(context.Background(), time.Time{}, time.Now())
	if err == nil {
		t.Fatal("expected error for missing session_id column")
	}
}

func TestCSVSource_DateRangeFilter(t *testing.T) {
	csv := `user_id,session_id,event_name,page_path,source,medium,timestamp
u1,s1,page_view,/,google,organic,2025-05-01T10:00:00Z
u1,s1,page_view,/pricing,google,organic,2025-06-02T10:00:00Z
`
	src := NewCSVSource(writeCSV(t, csv), "sign_up_complete", &mockLogger{})

	events, err := src.FunnelEvents(context.Background(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].PagePath != "/pricing" {
		t.Errorf("expected only the in-range event, got %+v", events)
	}
}
