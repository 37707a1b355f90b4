package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/refresh-agent/refresh-api/internal/graph"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/services"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// RefreshHandler exposes the document-refresh flows over HTTP.
type RefreshHandler struct {
	service services.RefreshService
	logger  *utils.Logger
}

func NewRefreshHandler(service services.RefreshService, logger *utils.Logger) *RefreshHandler {
	return &RefreshHandler{service: service, logger: logger}
}

// documentPayload is a raw input document as it arrives on the wire.
type documentPayload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
	Metadata struct {
		Created  string `json:"created"`
		Modified string `json:"modified"`
	} `json:"metadata"`
}

func (p documentPayload) toRef() (models.DocumentRef, error) {
	content, err := base64.StdEncoding.DecodeString(p.Content)
	if err != nil {
		return models.DocumentRef{}, utils.NewBadRequestError("content must be base64-encoded")
	}
	return models.DocumentRef{
		Filename: p.Filename,
		Content:  content,
		Metadata: models.DocumentMetadata{
			Created:  p.Metadata.Created,
			Modified: p.Metadata.Modified,
		},
	}, nil
}

func toRefs(payloads []documentPayload) ([]models.DocumentRef, error) {
	refs := make([]models.DocumentRef, 0, len(payloads))
	for _, p := range payloads {
		ref, err := p.toRef()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (h *RefreshHandler) SearchDrive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchTerms []string `json:"search_terms"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	token := graph.ExtractBearer(r.Header.Get("Authorization"))
	items, err := h.service.SearchDrive(r.Context(), token, req.SearchTerms)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"documents": items,
		"count":     len(items),
	})
}

func (h *RefreshHandler) RetrieveAndAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentIDs        []string `json:"document_ids"`
		ContextDocumentIDs []string `json:"context_document_ids"`
		UserContext        string   `json:"user_context"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	token := graph.ExtractBearer(r.Header.Get("Authorization"))
	result, err := h.service.RetrieveAndAnalyze(r.Context(), token, req.DocumentIDs, req.ContextDocumentIDs, req.UserContext)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{"analysis": result})
}

func (h *RefreshHandler) AnalyzeFamily(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Documents        []documentPayload `json:"documents"`
		ContextDocuments []documentPayload `json:"context_documents"`
		UserContext      string            `json:"user_context"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	documents, err := toRefs(req.Documents)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	contextDocs, err := toRefs(req.ContextDocuments)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.service.AnalyzeFamily(r.Context(), documents, req.UserContext, contextDocs)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{"analysis": result})
}

func (h *RefreshHandler) GenerateFromSynthesis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FamilyAnalysis        *models.FamilyAnalysisResult `json:"family_analysis"`
		BaseDocumentText      string                       `json:"base_document_text"`
		OrganizationalContext string                       `json:"organizational_context"`
		UserChanges           string                       `json:"user_changes"`
		TargetYear            string                       `json:"target_year"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	generated, err := h.service.GenerateFromSynthesis(r.Context(),
		req.FamilyAnalysis, req.BaseDocumentText, req.OrganizationalContext, req.UserChanges, req.TargetYear)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	payload := map[string]any{
		"generated_text":  generated.Synthesis.GeneratedText,
		"changes_applied": generated.Synthesis.ChangesApplied,
		"flags":           generated.Synthesis.Flags,
		"filename":        generated.Stored.Filename,
		"storage_type":    generated.Stored.StorageType,
	}
	if len(generated.Synthesis.Warnings) > 0 {
		payload["warnings"] = generated.Synthesis.Warnings
	}
	if generated.Stored.DownloadURL != "" {
		payload["download_url"] = generated.Stored.DownloadURL
		payload["expires_in_hours"] = generated.Stored.ExpiresInHours
	} else {
		payload["content"] = generated.Stored.Content
	}

	respondJSON(w, h.logger, http.StatusOK, payload)
}

func (h *RefreshHandler) SaveToDrive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DownloadURL string `json:"download_url"`
		Filename    string `json:"filename"`
		FolderPath  string `json:"folder_path"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	token := graph.ExtractBearer(r.Header.Get("Authorization"))
	saved, savedPath, err := h.service.SaveToDrive(r.Context(), token, req.DownloadURL, req.Filename, req.FolderPath)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"savedPath": savedPath,
		"webUrl":    saved.WebURL,
		"itemId":    saved.ItemID,
	})
}

func (h *RefreshHandler) ExtractSearchIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.service.ExtractSearchIntent(r.Context(), req.Prompt)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{"intent": result})
}

func (h *RefreshHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.service.Health(r.Context()))
}

func (h *RefreshHandler) StorageStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]any{"storage": h.service.StorageStatus(r.Context())})
}
