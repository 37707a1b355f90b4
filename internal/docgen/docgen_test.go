package docgen

import (
	"strings"
	"testing"
	"time"

	"github.com/refresh-agent/refresh-api/internal/extractor"
	"github.com/refresh-agent/refresh-api/internal/models"
)

func extract(t *testing.T, data []byte) string {
	t.Helper()
	text, err := extractor.ExtractDOCX(data)
	if err != nil {
		t.Fatalf("failed to extract generated docx: %v", err)
	}
	return text
}

func TestFromTextRoundTrip(t *testing.T) {
	data, err := FromText("First paragraph.\nSecond paragraph with <special> & characters.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := extract(t, data)
	if !strings.Contains(text, "First paragraph.") {
		t.Errorf("first paragraph missing from %q", text)
	}
	if !strings.Contains(text, "Second paragraph with <special> & characters.") {
		t.Errorf("special characters not preserved in %q", text)
	}
}

func TestGenerateMemo(t *testing.T) {
	fields := []models.Field{
		{FieldName: "recipient", CurrentValue: "All Staff"},
		{FieldName: "sender", CurrentValue: "Superintendent"},
		{FieldName: "subject", CurrentValue: "Schedule Change"},
		{FieldName: "date", CurrentValue: "October 1, 2025"},
		{FieldName: "body", CurrentValue: "School starts later.\nBuses adjusted accordingly."},
		{FieldName: "cc", CurrentValue: "Principals"},
	}

	data, err := Generate("memo", fields, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := extract(t, data)
	for _, want := range []string{
		"MEMORANDUM",
		"TO: All Staff",
		"FROM: Superintendent",
		"DATE: October 1, 2025",
		"RE: Schedule Change",
		"School starts later.",
		"cc: Principals",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("memo missing %q:\n%s", want, text)
		}
	}
}

func TestGenerateLetter(t *testing.T) {
	fields := []models.Field{
		{FieldName: "recipient", CurrentValue: "Parents and Guardians"},
		{FieldName: "sender", CurrentValue: "Dr. Smith"},
		{FieldName: "body", CurrentValue: "Welcome back to school."},
	}

	data, err := Generate("letter", fields, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := extract(t, data)
	if !strings.Contains(text, "Dear Parents and Guardians,") {
		t.Errorf("letter missing greeting:\n%s", text)
	}
	if !strings.Contains(text, "Sincerely,") || !strings.Contains(text, "Dr. Smith") {
		t.Errorf("letter missing closing:\n%s", text)
	}
}

func TestGenerateUsesNewValueOverCurrent(t *testing.T) {
	fields := []models.Field{
		{FieldName: "recipient", CurrentValue: "All Staff", NewValue: "All Teachers"},
		{FieldName: "body", CurrentValue: "Body text."},
	}

	data, err := Generate("memo", fields, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := extract(t, data)
	if !strings.Contains(text, "TO: All Teachers") {
		t.Errorf("expected new value to win:\n%s", text)
	}
}

func TestReplacePlaceholders(t *testing.T) {
	values := map[string]string{
		"school_year": "2025-2026",
		"recipient":   "All Staff",
	}

	got := ReplacePlaceholders("Calendar for {{school_year}}, sent to {{recipient}}. Missing: {{unknown_field}}.", values)
	want := "Calendar for 2025-2026, sent to All Staff. Missing: {{unknown_field}}."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGenerateFilename(t *testing.T) {
	datePart := time.Now().Format("01022006")

	fields := []models.Field{{FieldName: "subject", CurrentValue: "Fall Schedule Update"}}
	got := GenerateFilename("memo", fields)
	want := "Memo - Fall Schedule Update - " + datePart + ".docx"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Unsafe characters are stripped and long subjects trimmed.
	fields = []models.Field{{FieldName: "subject", CurrentValue: "Re: Budget/Q3 <review> of the district finance committee"}}
	got = GenerateFilename("letter", fields)
	if strings.ContainsAny(got, "/<>:") {
		t.Errorf("unsafe characters in filename %q", got)
	}
	base := strings.TrimSuffix(got, " - "+datePart+".docx")
	subject := strings.TrimPrefix(base, "Letter - ")
	if len(subject) > 30 {
		t.Errorf("subject not trimmed to 30 chars: %q", subject)
	}

	// No subject at all.
	got = GenerateFilename("", nil)
	if got != "Document - "+datePart+".docx" {
		t.Errorf("unexpected fallback filename %q", got)
	}
}
