package models

// DocumentRef is one raw input document. Ephemeral; built per request from
// either an API payload (base64 content) or a drive fetch, never persisted.
type DocumentRef struct {
	Filename string           `json:"filename"`
	Content  []byte           `json:"-"`
	Metadata DocumentMetadata `json:"metadata"`
}

type DocumentMetadata struct {
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

// ExtractedDocument is a DocumentRef after text extraction and truncation.
type ExtractedDocument struct {
	Filename string
	Text     string
	Metadata DocumentMetadata
}

// FamilyAnalysisResult is the structured output of the comparative analysis.
// Field names and nesting are wire contract: the chat front end renders them
// structurally, so they must not change.
type FamilyAnalysisResult struct {
	FamilyType             string          `json:"family_type"`
	FamilyTypeDisplay      string          `json:"family_type_display"`
	DocumentCount          int             `json:"document_count"`
	DateRange              string          `json:"date_range"`
	Analysis               FamilyBreakdown `json:"analysis"`
	RecommendedBase        string          `json:"recommended_base"`
	BaseDocumentText       string          `json:"base_document_text"`
	OrganizationalContext  string          `json:"organizational_context"`
	Confidence             float64         `json:"confidence"`
	Summary                string          `json:"summary"`
	SingleDocumentFallback bool            `json:"single_document_fallback,omitempty"`
	Warnings               []string        `json:"warnings,omitempty"`
}

type FamilyBreakdown struct {
	StableElements   StableElementGroup   `json:"stable_elements"`
	VariableElements VariableElementGroup `json:"variable_elements"`
	EmergingElements EmergingElementGroup `json:"emerging_elements"`
}

type StableElementGroup struct {
	Description string          `json:"description"`
	Items       []StableElement `json:"items"`
}

type VariableElementGroup struct {
	Description string            `json:"description"`
	Items       []VariableElement `json:"items"`
}

type EmergingElementGroup struct {
	Description string            `json:"description"`
	Items       []EmergingElement `json:"items"`
}

type StableElement struct {
	Element string `json:"element"`
	Detail  string `json:"detail"`
}

// VariableElement is a named field whose value changes version to version.
// ValuesSeen runs oldest to newest; PredictedNext is nil when the model
// cannot predict the next value.
type VariableElement struct {
	FieldName     string   `json:"field_name"`
	Pattern       string   `json:"pattern"`
	ValuesSeen    []string `json:"values_seen"`
	PredictedNext *string  `json:"predicted_next"`
}

type EmergingElement struct {
	Element       string `json:"element"`
	FirstAppeared string `json:"first_appeared"`
	Detail        string `json:"detail"`
}

// SynthesisResult is the output of synthesis-based generation.
type SynthesisResult struct {
	GeneratedText     string          `json:"generated_text"`
	ChangesApplied    []string        `json:"changes_applied"`
	Flags             []SynthesisFlag `json:"flags"`
	SuggestedFilename string          `json:"suggested_filename"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// SynthesisFlag marks a value the model could not determine. Placeholder is
// the literal bracketed token embedded in the generated text.
type SynthesisFlag struct {
	Field       string `json:"field"`
	Reason      string `json:"reason"`
	Placeholder string `json:"placeholder"`
}

// Field is one editable value extracted by single-document analysis.
// NewValue and PreFilled are populated by the merge step; Changed only
// appears in merge responses.
type Field struct {
	FieldName    string `json:"field_name"`
	FieldLabel   string `json:"field_label"`
	CurrentValue string `json:"current_value"`
	FieldType    string `json:"field_type"`
	Required     bool   `json:"required"`
	NewValue     string `json:"new_value,omitempty"`
	PreFilled    bool   `json:"pre_filled,omitempty"`
	Changed      bool   `json:"changed,omitempty"`
}

// DocumentAnalysis is the single-document (v1 compatibility) analysis result.
type DocumentAnalysis struct {
	DocumentType        string  `json:"document_type"`
	DocumentTypeDisplay string  `json:"document_type_display"`
	Confidence          float64 `json:"confidence"`
	Fields              []Field `json:"fields"`
	Summary             string  `json:"summary"`
	Filename            string  `json:"filename,omitempty"`
	OriginalTextPreview string  `json:"original_text_preview,omitempty"`
}

// SearchIntent is the search-only intent extraction result. Term lists are
// capped after parsing because the drive keyword search degrades with long
// multi-term queries.
type SearchIntent struct {
	DocumentType       string   `json:"document_type"`
	SearchTerms        []string `json:"search_terms"`
	ContextSearchTerms []string `json:"context_search_terms"`
	Summary            string   `json:"summary"`
	Confidence         float64  `json:"confidence"`
}

// Intent is the legacy intent extraction result (includes field extraction).
type Intent struct {
	Intent          string            `json:"intent"`
	DocumentType    string            `json:"document_type"`
	SearchTerms     []string          `json:"search_terms"`
	ExtractedFields map[string]string `json:"extracted_fields"`
	Confidence      float64           `json:"confidence"`
	Summary         string            `json:"summary"`
}

// DriveItem is one search/metadata result from the document-collaboration
// store. Field names mirror the upstream API.
type DriveItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Path            string `json:"path"`
	WebURL          string `json:"webUrl"`
	LastModified    string `json:"lastModified"`
	CreatedDateTime string `json:"createdDateTime"`
	Size            int64  `json:"size"`
}

// SaveResult is the outcome of uploading a file to the drive.
type SaveResult struct {
	WebURL string `json:"webUrl"`
	ItemID string `json:"itemId"`
}

// StoredDocument describes a generated document uploaded to blob storage.
type StoredDocument struct {
	Filename       string `json:"filename"`
	DownloadURL    string `json:"download_url,omitempty"`
	ExpiresInHours int    `json:"expires_in_hours,omitempty"`
	Content        string `json:"content,omitempty"` // base64 fallback when blob storage is down
	StorageType    string `json:"storage_type"`
}
