package intent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/refresh-agent/refresh-api/internal/completion"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

type fakeClient struct {
	calls    []completion.Request
	response string
	err      error
}

func (f *fakeClient) Complete(_ context.Context, req completion.Request) (json.RawMessage, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.response), nil
}

func testLogger() *utils.Logger {
	return utils.NewLogger("error")
}

func TestExtractSearchIntentCapsTerms(t *testing.T) {
	client := &fakeClient{response: `{
		"document_type": "newsletter",
		"search_terms": ["newsletter", "fall", "2024", "october", "parents"],
		"context_search_terms": ["org chart", "staff", "calendar", "policy", "budget", "extra"],
		"summary": "Find the fall newsletter",
		"confidence": 0.8
	}`}
	e := NewExtractor(client, true, testLogger())

	result, err := e.ExtractSearchIntent(context.Background(), "refresh the fall newsletter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.SearchTerms) != 3 {
		t.Errorf("expected search_terms capped at 3, got %v", result.SearchTerms)
	}
	if len(result.ContextSearchTerms) != 4 {
		t.Errorf("expected context_search_terms capped at 4, got %v", result.ContextSearchTerms)
	}
	if result.SearchTerms[0] != "newsletter" {
		t.Errorf("capping must preserve order, got %v", result.SearchTerms)
	}
}

func TestExtractSearchIntentDefaults(t *testing.T) {
	client := &fakeClient{response: `{"search_terms": [], "context_search_terms": [], "summary": "", "confidence": 0.2}`}
	e := NewExtractor(client, true, testLogger())

	result, err := e.ExtractSearchIntent(context.Background(), "do something")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DocumentType != "unknown" {
		t.Errorf("expected default document_type unknown, got %q", result.DocumentType)
	}
}

func TestExtractSearchIntentNotConfigured(t *testing.T) {
	client := &fakeClient{}
	e := NewExtractor(client, false, testLogger())

	_, err := e.ExtractSearchIntent(context.Background(), "anything")
	if !utils.IsNotConfigured(err) {
		t.Fatalf("expected NotConfigured, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected no completion calls, got %d", len(client.calls))
	}
}

func TestExtractIntentDefaults(t *testing.T) {
	client := &fakeClient{response: `{"search_terms": ["memo"], "confidence": 0.6, "summary": "memo refresh"}`}
	e := NewExtractor(client, true, testLogger())

	result, err := e.ExtractIntent(context.Background(), "update the memo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent != "unknown" || result.DocumentType != "unknown" {
		t.Errorf("expected unknown defaults, got %q / %q", result.Intent, result.DocumentType)
	}
	if result.ExtractedFields == nil {
		t.Error("extracted_fields must never be nil")
	}
}

func TestParseChanges(t *testing.T) {
	client := &fakeClient{response: `{"recipient": "All Teachers", "date": "October 1, 2025"}`}
	e := NewExtractor(client, true, testLogger())

	fields := []models.Field{
		{FieldName: "recipient", FieldLabel: "To", CurrentValue: "All Staff"},
		{FieldName: "date", FieldLabel: "Date", CurrentValue: "September 1, 2025"},
	}

	parsed := e.ParseChanges(context.Background(), "send it to all teachers on October 1", fields)
	if parsed["recipient"] != "All Teachers" || parsed["date"] != "October 1, 2025" {
		t.Errorf("unexpected parse result %v", parsed)
	}

	// The prompt carries the known fields so the model maps onto them.
	if !strings.Contains(client.calls[0].SystemPrompt, "- recipient (label: To, current: All Staff)") {
		t.Error("field list missing from change parser prompt")
	}
}

func TestParseChangesDegradesToEmpty(t *testing.T) {
	unconfigured := NewExtractor(&fakeClient{}, false, testLogger())
	if got := unconfigured.ParseChanges(context.Background(), "change it", nil); len(got) != 0 {
		t.Errorf("expected empty map when unconfigured, got %v", got)
	}

	failing := NewExtractor(&fakeClient{err: errors.New("boom")}, true, testLogger())
	if got := failing.ParseChanges(context.Background(), "change it", nil); len(got) != 0 {
		t.Errorf("expected empty map on completion failure, got %v", got)
	}
}
