package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/services"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// DocumentHandler exposes the single-document compatibility operations.
type DocumentHandler struct {
	service services.RefreshService
	logger  *utils.Logger
}

func NewDocumentHandler(service services.RefreshService, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{service: service, logger: logger}
}

// userChanges accepts either a field map or free-form text describing the
// edits, mirroring what the chat front end sends.
type userChanges struct {
	Fields map[string]string
	Text   string
}

func (u *userChanges) UnmarshalJSON(data []byte) error {
	var asMap map[string]string
	if err := json.Unmarshal(data, &asMap); err == nil {
		u.Fields = asMap
		return nil
	}
	var asText string
	if err := json.Unmarshal(data, &asText); err == nil {
		u.Text = asText
		return nil
	}
	return utils.NewBadRequestError("user_changes must be an object or a string")
}

func (h *DocumentHandler) ExtractIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.service.ExtractIntent(r.Context(), req.Prompt)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{"intent": result})
}

func (h *DocumentHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename        string            `json:"filename"`
		Content         string            `json:"content"` // base64
		ExtractedFields map[string]string `json:"extracted_fields"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("content must be base64-encoded"))
		return
	}

	analysis, err := h.service.AnalyzeDocument(r.Context(), content, req.Filename, req.ExtractedFields)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{"analysis": analysis})
}

func (h *DocumentHandler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentType    string         `json:"document_type"`
		Fields          []models.Field `json:"fields"`
		TemplateContent string         `json:"template_content"`
		Filename        string         `json:"filename"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	stored, err := h.service.GenerateDocument(r.Context(), req.DocumentType, req.Fields, req.TemplateContent, req.Filename)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, storedPayload(stored))
}

func (h *DocumentHandler) MergeFields(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OriginalFields     []models.Field    `json:"original_fields"`
		UserChanges        userChanges       `json:"user_changes"`
		PreExtractedFields map[string]string `json:"pre_extracted_fields"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	merged, applied, err := h.service.MergeFields(r.Context(), req.OriginalFields, req.UserChanges.Fields, req.UserChanges.Text, req.PreExtractedFields)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	mergedValues := make(map[string]string, len(merged))
	for _, f := range merged {
		mergedValues[f.FieldName] = f.NewValue
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"merged_fields":   mergedValues,
		"fields_detail":   merged,
		"changes_summary": applied,
	})
}

func (h *DocumentHandler) RefreshDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename    string      `json:"filename"`
		Content     string      `json:"content"` // base64
		UserChanges userChanges `json:"user_changes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("content must be base64-encoded"))
		return
	}

	analysis, stored, err := h.service.RefreshDocument(r.Context(), content, req.Filename, req.UserChanges.Fields, req.UserChanges.Text)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	payload := storedPayload(stored)
	payload["analysis"] = analysis
	respondJSON(w, h.logger, http.StatusOK, payload)
}

func storedPayload(stored *models.StoredDocument) map[string]any {
	payload := map[string]any{
		"filename":     stored.Filename,
		"storage_type": stored.StorageType,
	}
	if stored.DownloadURL != "" {
		payload["download_url"] = stored.DownloadURL
		payload["expires_in_hours"] = stored.ExpiresInHours
	} else {
		payload["content"] = stored.Content
	}
	return payload
}
