package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cayman-scraper/utils"
)

func TestNotifySuccessPayload(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s; want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, utils.NewTestLogger())
	n.NotifySuccess(context.Background(), "cireba", 42)

	if got.ScriptName != "cireba" {
		t.Errorf("script_name = %q; want cireba", got.ScriptName)
	}
	if got.Status != "success" {
		t.Errorf("status = %q; want success", got.Status)
	}
	if got.RecordsCount != 42 {
		t.Errorf("records_count = %d; want 42", got.RecordsCount)
	}
	if got.ErrorMessage != "" {
		t.Errorf("error_message = %q; want empty", got.ErrorMessage)
	}
	if _, err := time.Parse(time.RFC3339, got.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", got.Timestamp, err)
	}
}

func TestNotifyFailurePayload(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, utils.NewTestLogger())
	n.NotifyFailure(context.Background(), "ecaytrade", "fetching", errors.New("navigation timed out"))

	if got.Status != "failure" {
		t.Errorf("status = %q; want failure", got.Status)
	}
	if got.RecordsCount != 0 {
		t.Errorf("records_count = %d; want 0", got.RecordsCount)
	}
	if want := "fetching: navigation timed out"; got.ErrorMessage != want {
		t.Errorf("error_message = %q; want %q", got.ErrorMessage, want)
	}
}

func TestNotifyEmptyURLIsNoOp(t *testing.T) {
	n := NewWebhookNotifier("", utils.NewTestLogger())
	// Must not panic or block; delivery is simply dropped.
	n.NotifySuccess(context.Background(), "cireba", 1)
	n.NotifyFailure(context.Background(), "cireba", "saving", errors.New("boom"))
}

func TestNotifyNon200IsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, utils.NewTestLogger())
	n.NotifySuccess(context.Background(), "cireba", 7)
}

func TestNotifyUnreachableServerIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	n := NewWebhookNotifier(srv.URL, utils.NewTestLogger())
	n.NotifyFailure(context.Background(), "ecaytrade", "parsing", errors.New("bad card"))
}
