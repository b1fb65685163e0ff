package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caredesk/internal/database"
)

func seedAuditEvents(t *testing.T, db *database.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := db.InsertAuditEvent(context.Background(), database.AuditEvent{
			ID:            fmt.Sprintf("ev-%03d", i),
			EventType:     "appointment.status_changed",
			AppointmentID: "a-1",
			Actor:         "reception",
			Detail:        "scheduled -> completed",
			CreatedAt:     testNow.Add(-time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to seed audit event: %v", err)
		}
	}
}

func TestHandleAuditEvents(t *testing.T) {
	env := setupTestServer(t)
	seedAuditEvents(t, env.db, 3)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events", nil)
	w := doRequest(env, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp AuditEventsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	if len(resp.Events) != 3 {
		t.Errorf("events = %d, want 3", len(resp.Events))
	}
	if resp.Limit != defaultAuditPageSize {
		t.Errorf("limit = %d, want %d", resp.Limit, defaultAuditPageSize)
	}
}

func TestHandleAuditEvents_Paging(t *testing.T) {
	env := setupTestServer(t)
	seedAuditEvents(t, env.db, 5)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events?limit=2&offset=4", nil)
	w := doRequest(env, req)

	var resp AuditEventsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Total != 5 {
		t.Errorf("total = %d, want 5", resp.Total)
	}
	if len(resp.Events) != 1 {
		t.Errorf("events = %d, want 1 on the last page", len(resp.Events))
	}
	if resp.Offset != 4 {
		t.Errorf("offset = %d, want 4", resp.Offset)
	}
}

func TestHandleAuditEvents_Validation(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{name: "bad from", query: "?from=01.03.2026"},
		{name: "bad to", query: "?to=yesterday"},
		{name: "zero limit", query: "?limit=0"},
		{name: "negative offset", query: "?offset=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events"+tt.query, nil)
			w := doRequest(env, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleAuditEvents_DateWindow(t *testing.T) {
	env := setupTestServer(t)
	seedAuditEvents(t, env.db, 2)

	// Window that excludes the seeded events.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events?from=2020-01-01&to=2020-01-31", nil)
	w := doRequest(env, req)

	var resp AuditEventsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("total = %d, want 0 outside the window", resp.Total)
	}
}
