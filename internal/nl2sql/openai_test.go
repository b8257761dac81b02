package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAITranslatorSendsPromptAndSanitizes(t *testing.T) {
	var received chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none without api key", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Here you go:\n` + "```sql" + `\nSELECT s_quantity FROM stock;\n` + "```" + `\nDone."}}]}`))
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}

	result, err := translator.Translate(context.Background(), Request{
		SystemPrompt: "Given the following sqlite tables of records",
		UserMessage:  "  how many printers are in stock?  ",
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT s_quantity FROM stock;" {
		t.Fatalf("SQL = %q", result.SQL)
	}
	if !strings.HasPrefix(result.Raw, "Here you go:") {
		t.Fatalf("Raw = %q", result.Raw)
	}
	if result.Model != DefaultModel || result.Provider != providerName {
		t.Fatalf("Model/Provider = %q/%q", result.Model, result.Provider)
	}

	if received.Model != DefaultModel {
		t.Fatalf("request model = %q", received.Model)
	}
	if len(received.Messages) != 2 || received.Messages[0].Role != "system" || received.Messages[1].Content != "how many printers are in stock?" {
		t.Fatalf("messages = %+v", received.Messages)
	}
}

func TestOpenAITranslatorSendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"SELECT 1"}}]}`))
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: server.URL, APIKey: " secret ", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	result, err := translator.Translate(context.Background(), Request{UserMessage: "one"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if result.SQL != "SELECT 1" || result.Model != "gpt-4o-mini" {
		t.Fatalf("result = %+v", result)
	}
}

func TestOpenAITranslatorReturnsServiceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	_, err = translator.Translate(context.Background(), Request{UserMessage: "x"})
	if err == nil || !strings.Contains(err.Error(), "status=404") {
		t.Fatalf("Translate() error = %v", err)
	}
}

func TestOpenAITranslatorRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	translator, err := NewOpenAITranslator(OpenAIConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	if _, err := translator.Translate(context.Background(), Request{UserMessage: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewOpenAITranslatorDefaults(t *testing.T) {
	translator, err := NewOpenAITranslator(OpenAIConfig{})
	if err != nil {
		t.Fatalf("NewOpenAITranslator() error = %v", err)
	}
	if translator.baseURL != DefaultBaseURL || translator.Model() != DefaultModel {
		t.Fatalf("defaults = %q %q", translator.baseURL, translator.Model())
	}
	if _, err := NewOpenAITranslator(OpenAIConfig{BaseURL: "localhost:11434"}); err == nil {
		t.Fatal("expected error for scheme-less base URL")
	}
}
