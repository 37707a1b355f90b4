package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/refresh-agent/refresh-api/internal/completion"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// Term caps applied after parsing. The drive keyword search works best with
// short queries; too many space-joined terms returns zero results because the
// upstream API tries to match all terms together.
const (
	maxSearchTerms        = 3
	maxContextSearchTerms = 4
)

// Extractor turns free-text user requests into normalized search keywords and
// (on the legacy path) field overrides.
type Extractor struct {
	client     completion.Client
	configured bool
	logger     *utils.Logger
}

func NewExtractor(client completion.Client, configured bool, logger *utils.Logger) *Extractor {
	return &Extractor{
		client:     client,
		configured: configured,
		logger:     logger,
	}
}

// ExtractSearchIntent extracts search intent only, no field extraction.
func (e *Extractor) ExtractSearchIntent(ctx context.Context, userPrompt string) (*models.SearchIntent, error) {
	if !e.configured {
		return nil, utils.NewNotConfiguredError(
			"LLM credentials not configured. Set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY.")
	}

	raw, err := e.client.Complete(ctx, completion.Request{
		SystemPrompt: searchIntentPrompt,
		UserContent:  userPrompt,
		Temperature:  0.1,
		MaxTokens:    500,
		RequireJSON:  true,
	})
	if err != nil {
		e.logger.Error("Search intent completion failed", "error", err)
		return nil, err
	}

	var result models.SearchIntent
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, utils.NewCompletionError("search intent response did not match expected schema", err)
	}

	if result.DocumentType == "" {
		result.DocumentType = "unknown"
	}
	if len(result.SearchTerms) > maxSearchTerms {
		result.SearchTerms = result.SearchTerms[:maxSearchTerms]
	}
	if len(result.ContextSearchTerms) > maxContextSearchTerms {
		result.ContextSearchTerms = result.ContextSearchTerms[:maxContextSearchTerms]
	}

	e.logger.Info("Search intent extracted",
		"document_type", result.DocumentType,
		"search_terms", result.SearchTerms,
		"context_search_terms", result.ContextSearchTerms)

	return &result, nil
}

// ExtractIntent is the legacy extraction: intent classification, search terms
// and explicit field values in one call.
func (e *Extractor) ExtractIntent(ctx context.Context, userPrompt string) (*models.Intent, error) {
	if !e.configured {
		return nil, utils.NewNotConfiguredError(
			"LLM credentials not configured. Set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY.")
	}

	raw, err := e.client.Complete(ctx, completion.Request{
		SystemPrompt: intentPrompt,
		UserContent:  userPrompt,
		Temperature:  0.1,
		MaxTokens:    1000,
		RequireJSON:  true,
	})
	if err != nil {
		e.logger.Error("Intent completion failed", "error", err)
		return nil, err
	}

	var result models.Intent
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, utils.NewCompletionError("intent response did not match expected schema", err)
	}

	if result.Intent == "" {
		result.Intent = "unknown"
	}
	if result.DocumentType == "" {
		result.DocumentType = "unknown"
	}
	if result.ExtractedFields == nil {
		result.ExtractedFields = map[string]string{}
	}

	return &result, nil
}

// ParseChanges maps a natural-language change request onto the document's
// known fields. Returns an empty map when unconfigured or when nothing maps;
// this path never hard-fails the merge it feeds.
func (e *Extractor) ParseChanges(ctx context.Context, userText string, originalFields []models.Field) map[string]string {
	if !e.configured {
		e.logger.Warn("LLM not configured, cannot parse natural language changes")
		return map[string]string{}
	}

	var fieldLines []string
	for _, f := range originalFields {
		fieldLines = append(fieldLines, fmt.Sprintf("- %s (label: %s, current: %s)",
			f.FieldName, f.FieldLabel, f.CurrentValue))
	}

	raw, err := e.client.Complete(ctx, completion.Request{
		SystemPrompt: fmt.Sprintf(changeParserPromptHeader, strings.Join(fieldLines, "\n")),
		UserContent:  userText,
		Temperature:  0.1,
		MaxTokens:    500,
		RequireJSON:  true,
	})
	if err != nil {
		e.logger.Error("Change parsing completion failed", "error", err)
		return map[string]string{}
	}

	var parsed map[string]string
	if err := json.Unmarshal(raw, &parsed); err != nil {
		e.logger.Warn("Change parser returned non-flat object", "error", err)
		return map[string]string{}
	}

	e.logger.Info("Parsed natural language changes", "fields", len(parsed))
	return parsed
}
