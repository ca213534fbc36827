package httputils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostJSONRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer server.Close()

	var out map[string]string
	if err := PostJSON(server.URL, map[string]string{"msg": "hi"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["echo"] != "hi" {
		t.Errorf("echo = %q", out["echo"])
	}
}

func TestPostJSONBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := PostJSON(server.URL, map[string]string{}, nil); err == nil {
		t.Errorf("expected an error on 500")
	}
}

func TestPostJSONWithAuthSetsHeaders(t *testing.T) {
	var auth, extra string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		extra = r.Header.Get("X-Title")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := PostJSONWithAuth(server.URL, "key-1", map[string]string{"X-Title": "Test"}, map[string]string{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer key-1" {
		t.Errorf("auth = %q", auth)
	}
	if extra != "Test" {
		t.Errorf("extra header = %q", extra)
	}
}

func TestPostJSONWithAuthDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer server.Close()

	err := PostJSONWithAuth(server.URL, "key", nil, map[string]string{}, nil)
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("got %v, want the API error message", err)
	}
}
