package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Do_POST_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/compress" {
			t.Errorf("expected /api/compress, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		if got := r.Header.Get("X-API-Key"); got != "lt-key" {
			t.Errorf("expected X-API-Key lt-key, got %q", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/", Auth: APIKeyAuth("lt-key")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/compress",
		Body:   map[string]string{"prompt": "hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "hello") {
		t.Errorf("expected echoed body, got %s", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected flattened content type header, got %q", resp.Headers["Content-Type"])
	}
}

func TestClient_Do_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Default"); got != "d" {
			t.Errorf("expected X-Default=d, got %q", got)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-1" {
			t.Errorf("expected X-Request-ID=req-1, got %q", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "lt-key" {
			t.Errorf("expected X-API-Key=lt-key, got %q", got)
		}
	}))
	defer srv.Close()

	c, _ := New(Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Default": "d"},
		Auth:    APIKeyAuth("lt-key"),
	})
	_, err := c.Do(context.Background(), Request{
		Method:  http.MethodGet,
		Path:    "/",
		Headers: map[string]string{"X-Request-ID": "req-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_ErrorStatus(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
	}{
		{401, ErrCodeAuth},
		{403, ErrCodeAuth},
		{429, ErrCodeRateLimit},
		{422, ErrCodeClient},
		{500, ErrCodeServer},
		{503, ErrCodeServer},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		}))

		c, _ := New(Config{BaseURL: srv.URL})
		resp, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x"})
		srv.Close()

		e, ok := AsError(err)
		if !ok {
			t.Fatalf("status %d: expected *Error, got %v", tt.status, err)
		}
		if e.Code != tt.code {
			t.Errorf("status %d: expected code %s, got %s", tt.status, tt.code, e.Code)
		}
		if e.StatusCode != tt.status {
			t.Errorf("expected status %d, got %d", tt.status, e.StatusCode)
		}
		if string(e.Body) != `{"message":"nope"}` {
			t.Errorf("expected body to be kept, got %s", e.Body)
		}
		if resp == nil || resp.StatusCode != tt.status {
			t.Errorf("expected response alongside error for status %d", tt.status)
		}
	}
}

func TestClient_Do_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/slow"})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	e, _ := AsError(err)
	if e.Message != "Request timeout after 50ms" {
		t.Errorf("unexpected timeout message %q", e.Message)
	}
}

func TestClient_Do_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c, _ := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	e, ok := AsError(err)
	if !ok || e.Code != ErrCodeCanceled {
		t.Fatalf("expected canceled error, got %v", err)
	}
}

func TestClient_Do_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: url})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !IsConnection(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestClient_Do_EncodingError(t *testing.T) {
	c, _ := New(Config{BaseURL: "http://localhost"})
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/", Body: make(chan int)})
	e, ok := AsError(err)
	if !ok || e.Code != ErrCodeEncoding {
		t.Fatalf("expected encoding error, got %v", err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Timeout() != 30*time.Second {
		t.Errorf("expected 30s default timeout, got %v", c.Timeout())
	}
	if _, err := New(Config{Timeout: -time.Second}); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestClassifyStatusCode_Success(t *testing.T) {
	for _, code := range []int{200, 201, 204} {
		if err := ClassifyStatusCode(code, nil); err != nil {
			t.Errorf("expected nil for %d, got %v", code, err)
		}
	}
}

func TestError_Message(t *testing.T) {
	e := ClassifyStatusCode(500, nil)
	if e.Error() != "httpclient: server (HTTP 500): HTTP 500" {
		t.Errorf("unexpected message %q", e.Error())
	}
	ce := NewConnectionError(context.DeadlineExceeded)
	if !strings.HasPrefix(ce.Error(), "httpclient: connection: ") {
		t.Errorf("unexpected message %q", ce.Error())
	}
}
