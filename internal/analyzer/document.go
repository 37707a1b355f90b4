package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/refresh-agent/refresh-api/internal/completion"
	"github.com/refresh-agent/refresh-api/internal/extractor"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// Single documents get a larger budget than family members: field extraction
// benefits from seeing the whole document.
const maxSingleDocChars = 12000

// AnalyzeDocument runs the single-document compatibility path: extract text,
// then ask the model for atomic editable fields.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, fileBytes []byte, filename string) (*models.DocumentAnalysis, error) {
	if !a.configured {
		return nil, utils.NewNotConfiguredError(
			"LLM credentials not configured. Set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY.")
	}

	text, err := extractor.Extract(fileBytes, filename)
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		// Unparseable input is a client problem, same as an empty file.
		return nil, utils.NewNoExtractableTextError(
			"Could not extract text from document. File may be empty or corrupted.")
	}
	if strings.TrimSpace(text) == "" {
		return nil, utils.NewNoExtractableTextError(
			"Could not extract text from document. File may be empty or corrupted.")
	}

	promptText := text
	if len(promptText) > maxSingleDocChars {
		promptText = truncate(promptText, maxSingleDocChars) + "\n\n[Document truncated for analysis...]"
	}

	raw, err := a.client.Complete(ctx, completion.Request{
		SystemPrompt: documentAnalysisPrompt,
		UserContent:  "Analyze this document and extract its variable fields:\n\n" + promptText,
		Temperature:  0.1,
		MaxTokens:    2000,
		RequireJSON:  true,
	})
	if err != nil {
		a.logger.Error("Document analysis completion failed", "filename", filename, "error", err)
		return nil, err
	}

	var analysis models.DocumentAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, utils.NewCompletionError("document analysis response did not match expected schema", err)
	}

	analysis.Filename = filename
	if len(text) > 500 {
		analysis.OriginalTextPreview = truncate(text, 500) + "..."
	} else {
		analysis.OriginalTextPreview = text
	}

	return &analysis, nil
}
