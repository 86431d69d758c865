package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPost_JSONRoundTrip(t *testing.T) {
	var gotBody map[string]string
	var gotHeader, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/echo" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotHeader = r.Header.Get("X-Api-Key")
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(
		WithBaseURL(srv.URL),
		WithProviderName("test"),
		WithHeaders(map[string]string{"X-Api-Key": "secret"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	resp, err := client.NewRequest().
		SetBody(map[string]string{"hello": "world"}).
		SetResult(&result).
		Post(context.Background(), "/v1/echo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.IsError() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if !result.OK {
		t.Error("expected result to be decoded")
	}
	if gotBody["hello"] != "world" {
		t.Errorf("unexpected body %v", gotBody)
	}
	if gotHeader != "secret" {
		t.Errorf("expected default header, got %q", gotHeader)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected json content type, got %q", gotContentType)
	}
}

func TestResponseErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":"RATE_LIMITED"}`))
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("limited")
	var result map[string]any

	resp, err := client.NewRequest(
		WithResponseErrorHandler(func(status int, body []byte) error {
			if status == http.StatusTooManyRequests {
				return sentinel
			}
			return nil
		}),
		WithLabels(NewLabel("endpoint", "echo")),
	).SetResult(&result).Get(context.Background(), "/")

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected response to be returned alongside the error")
	}
	if result != nil {
		t.Error("error responses must not be decoded into the result")
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := NewInstrumentedClient(WithRequestTimeout(20 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.NewRequest().Get(context.Background(), srv.URL); err == nil {
		t.Error("expected timeout error")
	}
}
