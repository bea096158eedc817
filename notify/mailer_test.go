package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientSend(t *testing.T) {
	var got struct {
		method  string
		path    string
		auth    string
		ctype   string
		payload Message
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.ctype = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got.payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "test-key")
	msg := Message{From: "no-reply@example.com", To: "alice@example.com", Subject: "hi", Text: "body"}
	if err := c.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.method != http.MethodPost || got.path != "/messages" {
		t.Fatalf("unexpected request %s %s", got.method, got.path)
	}
	if got.auth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", got.auth)
	}
	if got.ctype != "application/json" {
		t.Fatalf("unexpected content type %q", got.ctype)
	}
	if got.payload != msg {
		t.Fatalf("unexpected payload %+v", got.payload)
	}
}

func TestClientSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid recipient", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	err := c.Send(context.Background(), Message{To: "nobody"})
	if err == nil {
		t.Fatalf("expected error on 422")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "invalid recipient") {
		t.Fatalf("error lacks detail: %v", err)
	}
}
