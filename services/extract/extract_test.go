package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"

	"github.com/reelist-io/reelist/services/openai"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newTestApi(t *testing.T, handler http.HandlerFunc) (*openai.Api, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return openai.NewApi(srv.URL, "test-key", "text-model", "vision-model", srv.Client()), &calls
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestTextExtract(t *testing.T) {
	api, _ := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %v", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization %q", got)
		}
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "text-model" {
			t.Errorf("expected text model, got %q", req.Model)
		}
		if req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json mode, got %q", req.ResponseFormat.Type)
		}
		_, _ = fmt.Fprint(w, completion(`{"title": "Heat", "year": 1995, "description": null}`))
	})

	res, err := NewText(api).Extract(context.Background(), "that De Niro heist movie from 1995")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Title != "Heat" {
		t.Errorf("expected title Heat, got %q", res.Title)
	}
	if res.Year == nil || *res.Year != 1995 {
		t.Errorf("expected year 1995, got %v", res.Year)
	}
	if res.Description != nil {
		t.Errorf("expected nil description, got %v", res.Description)
	}
}

func TestTextExtractNoTitle(t *testing.T) {
	api, _ := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, completion(`{"title": null, "year": null, "description": null}`))
	})

	_, err := NewText(api).Extract(context.Background(), "asdfgh")
	if !errors.Is(err, ErrNoTitle) {
		t.Errorf("expected ErrNoTitle, got %v", err)
	}
}

func TestTextExtractEmptyInput(t *testing.T) {
	api, calls := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, completion(`{"title": "Heat"}`))
	})

	_, err := NewText(api).Extract(context.Background(), "   ")
	if !errors.Is(err, ErrNoTitle) {
		t.Errorf("expected ErrNoTitle, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 0 {
		t.Errorf("expected no upstream requests for empty input, got %d", got)
	}
}

func TestTextExtractUpstreamError(t *testing.T) {
	api, _ := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewText(api).Extract(context.Background(), "some movie")
	if err == nil || errors.Is(err, ErrNoTitle) {
		t.Errorf("expected upstream error, got %v", err)
	}
}

func TestImageExtract(t *testing.T) {
	api, _ := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "vision-model" {
			t.Errorf("expected vision model, got %q", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(req.Messages))
		}
		var parts []struct {
			Type     string `json:"type"`
			ImageURL *struct {
				URL string `json:"url"`
			} `json:"image_url"`
		}
		if err := json.Unmarshal(req.Messages[1].Content, &parts); err != nil {
			t.Fatalf("expected content parts: %v", err)
		}
		found := false
		for _, p := range parts {
			if p.Type == "image_url" && p.ImageURL != nil && p.ImageURL.URL == "data:image/png;base64,abc" {
				found = true
			}
		}
		if !found {
			t.Errorf("image url part missing: %v", parts)
		}
		_, _ = fmt.Fprint(w, completion(`{"title": "Blade Runner 2049", "year": 2017}`))
	})

	res, err := NewImage(api).Extract(context.Background(), "data:image/png;base64,abc")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Title != "Blade Runner 2049" {
		t.Errorf("unexpected title %q", res.Title)
	}
}

func TestParseResultTrimsTitle(t *testing.T) {
	res, err := parseResult(`{"title": "  Alien  "}`)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if res.Title != "Alien" {
		t.Errorf("expected trimmed title, got %q", res.Title)
	}
}

func TestParseResultInvalidJSON(t *testing.T) {
	if _, err := parseResult(`not json`); err == nil {
		t.Error("expected decode error")
	}
}
