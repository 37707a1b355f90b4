package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/refresh-agent/refresh-api/internal/completion"
	"github.com/refresh-agent/refresh-api/internal/extractor"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// Per-document character budgets. Hard caps, not summarization: three primary
// documents at 6000 chars is roughly 4,500 tokens of input, which leaves room
// for the system prompt and the model's 3000-token answer.
const (
	maxPrimaryChars = 6000
	maxContextChars = 4000
)

// Analyzer runs the LLM-driven analysis pipelines. It holds no cross-request
// state; every call re-extracts text and re-invokes the model.
type Analyzer struct {
	client          completion.Client
	largeDeployment string
	configured      bool
	logger          *utils.Logger
}

// New builds an Analyzer. configured reports whether LLM credentials exist;
// when false every operation fails fast with NotConfigured before doing any
// extraction or network work.
func New(client completion.Client, largeDeployment string, configured bool, logger *utils.Logger) *Analyzer {
	return &Analyzer{
		client:          client,
		largeDeployment: largeDeployment,
		configured:      configured,
		logger:          logger,
	}
}

// Configured reports whether LLM credentials are present.
func (a *Analyzer) Configured() bool {
	return a.configured
}

// AnalyzeFamily performs comparative analysis across a family of documents,
// optionally incorporating organizational context documents.
func (a *Analyzer) AnalyzeFamily(
	ctx context.Context,
	documents []models.DocumentRef,
	userContext string,
	contextDocuments []models.DocumentRef,
) (*models.FamilyAnalysisResult, error) {
	if !a.configured {
		return nil, utils.NewNotConfiguredError(
			"LLM credentials not configured. Set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY.")
	}

	var warnings []string

	// Extract text from each primary document. Failures are non-fatal: the
	// document is dropped and recorded so the caller can see how much of the
	// set actually informed the analysis.
	var docs []models.ExtractedDocument
	for _, doc := range documents {
		text, err := extractor.Extract(doc.Content, doc.Filename)
		if err != nil {
			a.logger.Warn("Could not extract text from document", "filename", doc.Filename, "error", err)
			warnings = append(warnings, fmt.Sprintf("could not extract text from %s: %v", doc.Filename, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			a.logger.Warn("Empty text extracted from document", "filename", doc.Filename)
			warnings = append(warnings, fmt.Sprintf("empty text extracted from %s", doc.Filename))
			continue
		}
		docs = append(docs, models.ExtractedDocument{
			Filename: doc.Filename,
			Text:     truncate(text, maxPrimaryChars),
			Metadata: doc.Metadata,
		})
	}

	if len(docs) == 0 {
		return nil, utils.NewNoExtractableTextError(
			"Could not extract text from any of the provided documents.")
	}

	if len(docs) == 1 {
		a.logger.Info("Only one document survived extraction, returning single-document stub")
		return singleDocumentStub(docs[0], warnings), nil
	}

	// Chronological order is the basis for oldest-to-newest value sequences
	// and for most-recent-version selection. Unknown timestamps sort earliest.
	sort.SliceStable(docs, func(i, j int) bool {
		return sortKey(docs[i].Metadata.Created) < sortKey(docs[j].Metadata.Created)
	})

	var comparison strings.Builder
	for i, doc := range docs {
		created := doc.Metadata.Created
		if created == "" {
			created = "unknown date"
		}
		fmt.Fprintf(&comparison, "\n\n=== DOCUMENT %d: %s (created: %s) ===\n", i+1, doc.Filename, created)
		comparison.WriteString(doc.Text)
	}

	if userContext != "" {
		fmt.Fprintf(&comparison, "\n\nUser context: %s", userContext)
	}

	// Context documents are optional input; extraction failures drop silently.
	var contextDocs []models.ExtractedDocument
	for _, doc := range contextDocuments {
		text, err := extractor.Extract(doc.Content, doc.Filename)
		if err != nil || strings.TrimSpace(text) == "" {
			a.logger.Warn("Could not extract context document", "filename", doc.Filename, "error", err)
			continue
		}
		contextDocs = append(contextDocs, models.ExtractedDocument{
			Filename: doc.Filename,
			Text:     truncate(text, maxContextChars),
			Metadata: doc.Metadata,
		})
	}

	if len(contextDocs) > 0 {
		comparison.WriteString("\n\n=== ORGANIZATIONAL CONTEXT DOCUMENTS ===")
		for i, doc := range contextDocs {
			fmt.Fprintf(&comparison, "\n\n--- Context Doc %d: %s ---\n", i+1, doc.Filename)
			comparison.WriteString(doc.Text)
		}
		a.logger.Info("Including organizational context documents", "count", len(contextDocs))
	}

	raw, err := a.client.Complete(ctx, completion.Request{
		SystemPrompt: familyAnalysisPrompt,
		UserContent:  fmt.Sprintf("Analyze these %d related documents:\n%s", len(docs), comparison.String()),
		Temperature:  0.2, // low but not zero, allow some reasoning flexibility
		MaxTokens:    3000,
		RequireJSON:  true,
		Deployment:   a.largeDeployment,
	})
	if err != nil {
		a.logger.Error("Family analysis completion failed", "error", err)
		return nil, err
	}

	var result models.FamilyAnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, utils.NewCompletionError("family analysis response did not match expected schema", err)
	}

	// Never trust the model's count.
	result.DocumentCount = len(docs)

	// Resolve recommended_base against the filenames we actually sent. When
	// the model invents or mangles a filename, fall back to the
	// chronologically last (most recent) document rather than failing.
	baseText := ""
	for _, doc := range docs {
		if doc.Filename == result.RecommendedBase {
			baseText = doc.Text
			break
		}
	}
	if baseText == "" {
		last := docs[len(docs)-1]
		result.RecommendedBase = last.Filename
		baseText = last.Text
	}
	result.BaseDocumentText = baseText
	result.Warnings = warnings

	a.logger.Info("Family analysis complete",
		"family_type", result.FamilyTypeDisplay,
		"documents", len(docs),
		"context_documents", len(contextDocs),
		"confidence", result.Confidence)

	return &result, nil
}

func singleDocumentStub(doc models.ExtractedDocument, warnings []string) *models.FamilyAnalysisResult {
	dateRange := doc.Metadata.Created
	if dateRange == "" {
		dateRange = "unknown"
	}
	return &models.FamilyAnalysisResult{
		FamilyType:        "unknown",
		FamilyTypeDisplay: "Single Document",
		DocumentCount:     1,
		DateRange:         dateRange,
		Analysis: models.FamilyBreakdown{
			StableElements:   models.StableElementGroup{Description: "N/A for single document", Items: []models.StableElement{}},
			VariableElements: models.VariableElementGroup{Description: "N/A for single document", Items: []models.VariableElement{}},
			EmergingElements: models.EmergingElementGroup{Description: "N/A for single document", Items: []models.EmergingElement{}},
		},
		RecommendedBase:        doc.Filename,
		BaseDocumentText:       doc.Text,
		OrganizationalContext:  "",
		Confidence:             0.5,
		Summary:                fmt.Sprintf("Only one document found: %s. Use single-document analysis instead.", doc.Filename),
		SingleDocumentFallback: true,
		Warnings:               warnings,
	}
}

func sortKey(created string) string {
	if created == "unknown" {
		return ""
	}
	return created
}

// truncate cuts s to at most limit bytes, backing off to a rune boundary so
// the prompt never carries a torn UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
