package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestRespondJSONSetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, 201, map[string]string{"status": "ok"})

	if rec.Code != 201 {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRespondErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, 400, "bad input")

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["error"] != "bad input" {
		t.Fatalf("unexpected error payload %v", body)
	}
}
