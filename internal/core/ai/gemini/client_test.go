package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipe-app-api/internal/core/ai/prompt"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"
)

func testConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{
			APIKey:         "test-key",
			Model:          "gemini-2.5-pro",
			ThinkingBudget: -1,
			Timeout:        5 * time.Second,
		},
	}
}

func envelope(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + mustJSON(text) + `}],"role":"model"}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGenerateContent_SendsExpectedRequestShape(t *testing.T) {
	var gotPath, gotKey string
	var gotReq Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(envelope(`{"recipes": []}`)))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testConfig(), server.URL)
	defer client.Close()

	text, err := client.GenerateContent(context.Background(), &prompt.Prompt{
		Model:       "gemini-2.5-pro",
		Instruction: "Generate a complete recipe for: Pad Thai",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"recipes": []}` {
		t.Errorf("expected first part text returned, got %q", text)
	}

	if gotPath != "/models/gemini-2.5-pro:generateContent" {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Role != "user" {
		t.Fatalf("expected single user content, got %+v", gotReq.Contents)
	}
	if len(gotReq.Contents[0].Parts) != 1 || !strings.Contains(gotReq.Contents[0].Parts[0].Text, "Pad Thai") {
		t.Errorf("expected instruction text part, got %+v", gotReq.Contents[0].Parts)
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.ThinkingConfig == nil {
		t.Fatal("expected thinking config in request")
	}
	if gotReq.GenerationConfig.ThinkingConfig.ThinkingBudget != -1 {
		t.Errorf("expected thinking budget -1, got %d", gotReq.GenerationConfig.ThinkingConfig.ThinkingBudget)
	}
}

func TestGenerateContent_ImagePromptCarriesInlineData(t *testing.T) {
	var gotReq Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(envelope("ok")))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testConfig(), server.URL)
	defer client.Close()

	_, err := client.GenerateContent(context.Background(), &prompt.Prompt{
		Model:       "gemini-2.5-pro",
		Instruction: "Analyze this food image",
		ImageData:   "aGVsbG8=",
		MimeType:    "image/jpeg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("expected text part plus image part, got %+v", gotReq.Contents)
	}
	inline := gotReq.Contents[0].Parts[1].InlineData
	if inline == nil {
		t.Fatal("expected inline data on second part")
	}
	if inline.MimeType != "image/jpeg" || inline.Data != "aGVsbG8=" {
		t.Errorf("unexpected inline data %+v", inline)
	}
}

func TestGenerateContent_MissingKeyFailsWithoutNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Gemini.APIKey = ""
	client := NewClientWithBaseURL(cfg, server.URL)
	defer client.Close()

	_, err := client.GenerateContent(context.Background(), &prompt.Prompt{
		Model:       "gemini-2.5-pro",
		Instruction: "hello",
	})
	if !common.IsCode(err, common.ErrCodeConfiguration) {
		t.Errorf("expected code %s, got %s", common.ErrCodeConfiguration, common.ErrorCode(err))
	}
	if called {
		t.Error("expected no HTTP request when key is missing")
	}
}

func TestGenerateContent_UnauthorizedStatusIsConfigurationError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": {"message": "API key not valid"}}`))
		}))

		client := NewClientWithBaseURL(testConfig(), server.URL)
		_, err := client.GenerateContent(context.Background(), &prompt.Prompt{
			Model:       "gemini-2.5-pro",
			Instruction: "hello",
		})
		if !common.IsCode(err, common.ErrCodeConfiguration) {
			t.Errorf("status %d: expected code %s, got %s", status, common.ErrCodeConfiguration, common.ErrorCode(err))
		}

		client.Close()
		server.Close()
	}
}

func TestGenerateContent_ServerErrorIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "internal"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testConfig(), server.URL)
	defer client.Close()

	_, err := client.GenerateContent(context.Background(), &prompt.Prompt{
		Model:       "gemini-2.5-pro",
		Instruction: "hello",
	})
	if !common.IsCode(err, common.ErrCodeNetwork) {
		t.Errorf("expected code %s, got %s", common.ErrCodeNetwork, common.ErrorCode(err))
	}
}

func TestGenerateContent_TransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 立即關閉，強制連線失敗

	client := NewClientWithBaseURL(testConfig(), server.URL)
	defer client.Close()

	_, err := client.GenerateContent(context.Background(), &prompt.Prompt{
		Model:       "gemini-2.5-pro",
		Instruction: "hello",
	})
	if !common.IsCode(err, common.ErrCodeNetwork) {
		t.Errorf("expected code %s, got %s", common.ErrCodeNetwork, common.ErrorCode(err))
	}
}

func TestGenerateContent_EnvelopeLayersFailIndependently(t *testing.T) {
	cases := []struct {
		name string
		body string
		code string
	}{
		{"empty candidates", `{"candidates": []}`, common.ErrCodeEmptyCandidates},
		{"missing candidates", `{}`, common.ErrCodeEmptyCandidates},
		{"empty parts", `{"candidates":[{"content":{"parts":[]}}]}`, common.ErrCodeEmptyContent},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, common.ErrCodeEmptyText},
		{"broken envelope", `not json`, common.ErrCodeMalformedResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClientWithBaseURL(testConfig(), server.URL)
			defer client.Close()

			_, err := client.GenerateContent(context.Background(), &prompt.Prompt{
				Model:       "gemini-2.5-pro",
				Instruction: "hello",
			})
			if !common.IsCode(err, tc.code) {
				t.Errorf("expected code %s, got %s (%v)", tc.code, common.ErrorCode(err), err)
			}
		})
	}
}
