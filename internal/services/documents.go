package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/refresh-agent/refresh-api/internal/docgen"
	"github.com/refresh-agent/refresh-api/internal/intent"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// AnalyzeDocument runs single-document field extraction. Pre-extracted
// values from earlier intent parsing are merged into the detected fields.
func (s *refreshService) AnalyzeDocument(ctx context.Context, content []byte, filename string, preExtracted map[string]string) (*models.DocumentAnalysis, error) {
	if len(content) == 0 {
		return nil, utils.NewBadRequestError("content is required")
	}
	if filename == "" {
		filename = "document.docx"
	}

	analysis, err := s.analyzer.AnalyzeDocument(ctx, content, filename)
	if err != nil {
		return nil, err
	}

	if len(preExtracted) > 0 {
		analysis.Fields = intent.MergeFields(analysis.Fields, preExtracted)
	}

	s.logger.Info("Document analyzed",
		"filename", filename,
		"document_type", analysis.DocumentType,
		"fields", len(analysis.Fields))
	return analysis, nil
}

// GenerateDocument renders a .docx from field values, optionally driven by
// a text template with {{placeholder}} markers.
func (s *refreshService) GenerateDocument(ctx context.Context, docType string, fields []models.Field, templateContent, filename string) (*models.StoredDocument, error) {
	if docType == "" && templateContent == "" {
		return nil, utils.NewBadRequestError("document_type or template_content is required")
	}

	var data []byte
	var err error
	if templateContent != "" {
		body := docgen.ReplacePlaceholders(templateContent, fieldMap(fields))
		data, err = docgen.FromText(body)
	} else {
		data, err = docgen.Generate(docType, fields, "")
	}
	if err != nil {
		return nil, utils.NewInternalError(fmt.Sprintf("Failed to render document: %v", err))
	}

	if filename == "" {
		filename = docgen.GenerateFilename(docType, fields)
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".docx") {
		filename += ".docx"
	}

	return s.store(ctx, data, filename), nil
}

// MergeFields applies user changes to the extracted fields. Changes arrive
// either as an explicit field map or as natural-language text that the LLM
// turns into one.
func (s *refreshService) MergeFields(ctx context.Context, originalFields []models.Field, userChanges map[string]string, changesText string, preExtracted map[string]string) ([]models.Field, map[string]string, error) {
	if len(originalFields) == 0 {
		return nil, nil, utils.NewBadRequestError("original_fields is required")
	}

	overrides := make(map[string]string, len(userChanges)+len(preExtracted))
	for k, v := range preExtracted {
		overrides[k] = v
	}
	if changesText != "" {
		parsed := s.intents.ParseChanges(ctx, changesText, originalFields)
		for k, v := range parsed {
			overrides[k] = v
		}
	}
	for k, v := range userChanges {
		overrides[k] = v
	}

	merged := intent.MergeFields(originalFields, overrides)

	applied := make(map[string]string)
	for _, f := range merged {
		if f.Changed {
			applied[f.FieldName] = f.NewValue
		}
	}

	return merged, applied, nil
}

// RefreshDocument is the combined flow: analyze the uploaded document,
// apply the requested changes, and render the refreshed version.
func (s *refreshService) RefreshDocument(ctx context.Context, content []byte, filename string, userChanges map[string]string, changesText string) (*models.DocumentAnalysis, *models.StoredDocument, error) {
	analysis, err := s.AnalyzeDocument(ctx, content, filename, nil)
	if err != nil {
		return nil, nil, err
	}

	merged, _, err := s.MergeFields(ctx, analysis.Fields, userChanges, changesText, nil)
	if err != nil {
		return nil, nil, err
	}
	analysis.Fields = merged

	stored, err := s.GenerateDocument(ctx, analysis.DocumentType, merged, "", "")
	if err != nil {
		return nil, nil, err
	}

	return analysis, stored, nil
}

func fieldMap(fields []models.Field) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		v := f.NewValue
		if v == "" {
			v = f.CurrentValue
		}
		values[f.FieldName] = v
	}
	return values
}
