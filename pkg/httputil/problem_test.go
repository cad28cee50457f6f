package httputil

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestNewProblemDetail(t *testing.T) {
	p := NewProblemDetail(400, "Bad Request", "invalid pool name")

	if p.Type != "about:blank" {
		t.Errorf("Type = %q, want %q", p.Type, "about:blank")
	}
	if p.Title != "Bad Request" {
		t.Errorf("Title = %q, want %q", p.Title, "Bad Request")
	}
	if p.Status != 400 {
		t.Errorf("Status = %d, want %d", p.Status, 400)
	}
	if p.Detail != "invalid pool name" {
		t.Errorf("Detail = %q, want %q", p.Detail, "invalid pool name")
	}
}

func TestBadRequest(t *testing.T) {
	p := BadRequest("missing key parameter")
	if p.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", p.Status, http.StatusBadRequest)
	}
	if p.Title != "Bad Request" {
		t.Errorf("Title = %q, want %q", p.Title, "Bad Request")
	}
}

func TestNotFound(t *testing.T) {
	p := NotFound("dialog not found")
	if p.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", p.Status, http.StatusNotFound)
	}
	if p.Title != "Not Found" {
		t.Errorf("Title = %q, want %q", p.Title, "Not Found")
	}
}

func TestInternalServerError(t *testing.T) {
	p := InternalServerError("store operation failed")
	if p.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", p.Status, http.StatusInternalServerError)
	}
	if p.Title != "Internal Server Error" {
		t.Errorf("Title = %q, want %q", p.Title, "Internal Server Error")
	}
}

func TestServiceUnavailable(t *testing.T) {
	p := ServiceUnavailable("dialog store unavailable")
	if p.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", p.Status, http.StatusServiceUnavailable)
	}
	if p.Title != "Service Unavailable" {
		t.Errorf("Title = %q, want %q", p.Title, "Service Unavailable")
	}
}

func TestProblemDetailJSON(t *testing.T) {
	p := NotFound("no such pool")
	data, err := p.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var parsed ProblemDetail
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if parsed.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", parsed.Status, http.StatusNotFound)
	}
	if parsed.Detail != "no such pool" {
		t.Errorf("Detail = %q, want %q", parsed.Detail, "no such pool")
	}
}
