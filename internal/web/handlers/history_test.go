package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/comparator/comparatortest"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

func TestHistory_Empty(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))

	recorder := httptest.NewRecorder()
	env.handler.History(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if body := strings.TrimSpace(recorder.Body.String()); body != "[]" {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestHistory_ReturnsRecordsInOrder(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))
	ctx := context.Background()
	for _, entry := range [][2]string{{"alice@x.com", "math101"}, {"bob@x.com", "physics"}} {
		if _, err := env.ledger.Append(ctx, entry[0], entry[1]); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	recorder := httptest.NewRecorder()
	env.handler.History(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var records []map[string]any
	parseJSONResponse(t, recorder, &records)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["email"] != "alice@x.com" || records[0]["class_name"] != "math101" {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if records[1]["email"] != "bob@x.com" {
		t.Errorf("unexpected second record: %v", records[1])
	}
	for _, key := range []string{"id", "timestamp"} {
		if _, ok := records[0][key]; !ok {
			t.Errorf("expected %q in record", key)
		}
	}
}

type nilHistoryService struct {
	Service
}

func (nilHistoryService) History(context.Context) ([]ledger.Record, error) {
	return nil, nil
}

func TestHistory_NilIsEmptyArray(t *testing.T) {
	handler := NewAttendanceHandler(testConfig(), nilHistoryService{}, nil)

	recorder := httptest.NewRecorder()
	handler.History(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))

	if body := strings.TrimSpace(recorder.Body.String()); body != "[]" {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestHistory_StorageFailure(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))
	env.ledger.Err = errors.New("connection refused")

	recorder := httptest.NewRecorder()
	env.handler.History(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "storage failure")
}
