package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ededdyj/Baby-Data/internal/config"
	"github.com/ededdyj/Baby-Data/internal/model"
	"github.com/ededdyj/Baby-Data/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := db.AutoMigrate(&model.Event{}, &model.Baby{}, &model.WeightEntry{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	cfg := &config.Config{Port: "0", LocalTimezone: time.UTC}
	st := store.New(db, time.UTC)
	return New(cfg, st, log.New(io.Discard, "", 0), []byte("<html>test</html>"))
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var decoded map[string]json.RawMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func logEvent(t *testing.T, s *Server, baby, kind, occurredAt string) model.Event {
	t.Helper()
	resp, body := doJSON(t, s, http.MethodPost, "/api/events", CreateEventInput{
		BabyName:   baby,
		Kind:       kind,
		OccurredAt: occurredAt,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: status %d, body %v", resp.StatusCode, body)
	}
	var event model.Event
	if err := json.Unmarshal(body["event"], &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return event
}

func listEvents(t *testing.T, s *Server, query string) []model.Event {
	t.Helper()
	resp, body := doJSON(t, s, http.MethodGet, "/api/events"+query, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list events: status %d", resp.StatusCode)
	}
	var events []model.Event
	if err := json.Unmarshal(body["events"], &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	return events
}

func TestLogNowSetsOccurredAt(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	before := time.Now()
	event := logEvent(t, s, "June", "milk", "")
	after := time.Now()

	if event.OccurredAt.Before(before.Add(-time.Second)) || event.OccurredAt.After(after.Add(time.Second)) {
		t.Fatalf("occurred_at %v not within the submission second", event.OccurredAt)
	}
}

func TestCreateEventInvalidInput(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	cases := []struct {
		name  string
		input CreateEventInput
	}{
		{"unknown kind", CreateEventInput{BabyName: "June", Kind: "bath"}},
		{"empty baby", CreateEventInput{BabyName: "", Kind: "milk"}},
		{"bad timestamp", CreateEventInput{BabyName: "June", Kind: "milk", OccurredAt: "yesterday-ish"}},
	}
	for _, tc := range cases {
		resp, body := doJSON(t, s, http.MethodPost, "/api/events", tc.input)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d (%v)", tc.name, resp.StatusCode, body)
		}
	}
}

func TestDeleteEvent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	keep := logEvent(t, s, "June", "milk", "2024-01-01T09:00:00")
	gone := logEvent(t, s, "June", "pee", "2024-01-01T10:00:00")

	resp, _ := doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/events/%d", gone.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/events/%d", gone.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for repeated delete, got %d", resp.StatusCode)
	}

	events := listEvents(t, s, "?range=all")
	if len(events) != 1 || events[0].ID != keep.ID {
		t.Fatalf("delete touched the wrong rows: %+v", events)
	}
}

func TestListEventsFiltering(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	logEvent(t, s, "June", "milk", "2024-01-01T09:00:00")
	logEvent(t, s, "June", "pee", "2024-01-05T08:00:00")
	logEvent(t, s, "Theo", "poop", "2024-01-05T09:00:00")

	june := listEvents(t, s, "?range=all&baby=June")
	if len(june) != 2 {
		t.Fatalf("expected 2 events for June, got %d", len(june))
	}

	ranged := listEvents(t, s, "?range=custom&from=2024-01-05&to=2024-01-05")
	if len(ranged) != 2 {
		t.Fatalf("expected 2 events on Jan 5, got %d", len(ranged))
	}

	resp, _ := doJSON(t, s, http.MethodGet, "/api/events?range=fortnight", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown range, got %d", resp.StatusCode)
	}
}

func TestClearBabyEvents(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	logEvent(t, s, "June", "milk", "2024-01-01T09:00:00")
	logEvent(t, s, "June", "pee", "2024-01-01T10:00:00")
	logEvent(t, s, "Theo", "poop", "2024-01-01T11:00:00")

	resp, body := doJSON(t, s, http.MethodDelete, "/api/events?baby=June", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear: status %d (%v)", resp.StatusCode, body)
	}

	remaining := listEvents(t, s, "?range=all")
	if len(remaining) != 1 || remaining[0].BabyName != "Theo" {
		t.Fatalf("expected only Theo left, got %+v", remaining)
	}

	resp, _ = doJSON(t, s, http.MethodDelete, "/api/events", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without baby param, got %d", resp.StatusCode)
	}
}

func TestAggregateEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	logEvent(t, s, "June", "milk", "2024-01-01T09:00:00")
	logEvent(t, s, "June", "milk", "2024-01-01T14:00:00")
	logEvent(t, s, "June", "pee", "2024-01-02T08:00:00")

	resp, body := doJSON(t, s, http.MethodGet, "/api/aggregate?range=all&period=day", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("aggregate: status %d", resp.StatusCode)
	}

	var buckets []store.Bucket
	if err := json.Unmarshal(body["buckets"], &buckets); err != nil {
		t.Fatalf("decode buckets: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Counts[model.KindMilk] != 2 || buckets[1].Counts[model.KindPee] != 1 {
		t.Fatalf("bucket counts wrong: %+v", buckets)
	}

	resp, _ = doJSON(t, s, http.MethodGet, "/api/aggregate?period=week", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad period, got %d", resp.StatusCode)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/babies", AddBabyInput{Name: "June", BirthDate: "2024-01-01"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add baby: status %d", resp.StatusCode)
	}

	logEvent(t, s, "June", "milk", "2024-01-01T09:00:00")
	logEvent(t, s, "June", "milk", "2024-01-01T11:00:00")

	resp, body := doJSON(t, s, http.MethodGet, "/api/summary?range=all&baby=June", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}

	var totals map[model.Kind]int
	if err := json.Unmarshal(body["totals"], &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if totals[model.KindMilk] != 2 {
		t.Fatalf("milk total wrong: %+v", totals)
	}

	var dayOfLife int
	if raw, ok := body["day_of_life"]; !ok {
		t.Fatalf("expected day_of_life for a baby with a birth date")
	} else if err := json.Unmarshal(raw, &dayOfLife); err != nil || dayOfLife < 1 {
		t.Fatalf("day_of_life wrong: %v %v", dayOfLife, err)
	}
}

func TestBabiesEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	logEvent(t, s, "Theo", "poop", "2024-01-01T09:00:00")
	resp, _ := doJSON(t, s, http.MethodPost, "/api/babies", AddBabyInput{Name: "June"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add baby: status %d", resp.StatusCode)
	}

	resp, body := doJSON(t, s, http.MethodGet, "/api/babies", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list babies: status %d", resp.StatusCode)
	}
	var names []string
	if err := json.Unmarshal(body["names"], &names); err != nil {
		t.Fatalf("decode names: %v", err)
	}
	if len(names) != 2 || names[0] != "June" || names[1] != "Theo" {
		t.Fatalf("expected sorted [June Theo], got %v", names)
	}

	resp, _ = doJSON(t, s, http.MethodPost, "/api/babies", AddBabyInput{Name: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", resp.StatusCode)
	}
}

func TestWeightEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/weights", SaveWeightInput{BabyName: "June", Date: "2024-03-01", Pounds: 8, Ounces: 8})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save weight: status %d", resp.StatusCode)
	}
	// Same day again: overwrite.
	resp, _ = doJSON(t, s, http.MethodPost, "/api/weights", SaveWeightInput{BabyName: "June", Date: "2024-03-01", Pounds: 8, Ounces: 12})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("overwrite weight: status %d", resp.StatusCode)
	}

	resp, body := doJSON(t, s, http.MethodGet, "/api/weights?baby=June", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list weights: status %d", resp.StatusCode)
	}
	var weights []model.WeightEntry
	if err := json.Unmarshal(body["weights"], &weights); err != nil {
		t.Fatalf("decode weights: %v", err)
	}
	if len(weights) != 1 || weights[0].Pounds != 8.75 {
		t.Fatalf("expected single 8.75lb entry, got %+v", weights)
	}

	resp, _ = doJSON(t, s, http.MethodPost, "/api/weights", SaveWeightInput{BabyName: "June", Ounces: 20})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for 20oz, got %d", resp.StatusCode)
	}
}

func TestIndexServed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "<html>") {
		t.Fatalf("index body missing html: %q", raw)
	}
}
