package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/refresh-agent/refresh-api/internal/analyzer"
	"github.com/refresh-agent/refresh-api/internal/cache"
	"github.com/refresh-agent/refresh-api/internal/completion"
	"github.com/refresh-agent/refresh-api/internal/config"
	"github.com/refresh-agent/refresh-api/internal/docgen"
	"github.com/refresh-agent/refresh-api/internal/graph"
	"github.com/refresh-agent/refresh-api/internal/intent"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/storage"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// GeneratedDocument bundles a synthesis result with where the rendered
// .docx ended up.
type GeneratedDocument struct {
	Synthesis *models.SynthesisResult
	Stored    *models.StoredDocument
}

// RefreshService orchestrates the document-refresh flows: drive search and
// retrieval, comparative analysis, synthesis generation, and the
// single-document compatibility operations.
type RefreshService interface {
	SearchDrive(ctx context.Context, userToken string, searchTerms []string) ([]models.DriveItem, error)
	RetrieveAndAnalyze(ctx context.Context, userToken string, documentIDs, contextDocumentIDs []string, userContext string) (*models.FamilyAnalysisResult, error)
	AnalyzeFamily(ctx context.Context, documents []models.DocumentRef, userContext string, contextDocuments []models.DocumentRef) (*models.FamilyAnalysisResult, error)
	GenerateFromSynthesis(ctx context.Context, analysis *models.FamilyAnalysisResult, baseDocumentText, organizationalContext, userChanges, targetYear string) (*GeneratedDocument, error)
	SaveToDrive(ctx context.Context, userToken, downloadURL, filename, folderPath string) (*models.SaveResult, string, error)

	ExtractSearchIntent(ctx context.Context, prompt string) (*models.SearchIntent, error)
	ExtractIntent(ctx context.Context, prompt string) (*models.Intent, error)

	AnalyzeDocument(ctx context.Context, content []byte, filename string, preExtracted map[string]string) (*models.DocumentAnalysis, error)
	GenerateDocument(ctx context.Context, docType string, fields []models.Field, templateContent, filename string) (*models.StoredDocument, error)
	MergeFields(ctx context.Context, originalFields []models.Field, userChanges map[string]string, changesText string, preExtracted map[string]string) ([]models.Field, map[string]string, error)
	RefreshDocument(ctx context.Context, content []byte, filename string, userChanges map[string]string, changesText string) (*models.DocumentAnalysis, *models.StoredDocument, error)

	Health(ctx context.Context) map[string]any
	StorageStatus(ctx context.Context) map[string]any
}

type refreshService struct {
	analyzer   *analyzer.Analyzer
	intents    *intent.Extractor
	graph      *graph.Client
	storage    storage.Storage
	cache      *cache.Store
	downloader *http.Client
	logger     *utils.Logger
}

func NewService(cfg *config.Config, cacheStore *cache.Store, logger *utils.Logger) RefreshService {
	client := completion.NewAzureClient(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIDeployment, cfg.OpenAIAPIVersion, logger)

	var blobStore storage.Storage
	if cfg.BlobConfigured() {
		store, err := storage.NewBlobStorage(cfg)
		if err != nil {
			// Generation still works without blob storage; documents fall
			// back to inline base64 content.
			logger.Warn("Blob storage unavailable, falling back to inline content", "error", err)
		} else {
			blobStore = store
		}
	}

	return &refreshService{
		analyzer:   analyzer.New(client, cfg.LargeDeployment(), cfg.OpenAIConfigured(), logger),
		intents:    intent.NewExtractor(client, cfg.OpenAIConfigured(), logger),
		graph:      graph.NewClient(cfg, logger),
		storage:    blobStore,
		cache:      cacheStore,
		downloader: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (s *refreshService) SearchDrive(ctx context.Context, userToken string, searchTerms []string) ([]models.DriveItem, error) {
	query := strings.TrimSpace(strings.Join(searchTerms, " "))
	if query == "" {
		return nil, utils.NewBadRequestError("search_terms is required")
	}

	items, err := s.graph.Search(ctx, userToken, query)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Drive search completed", "query", query, "results", len(items))
	return items, nil
}

func (s *refreshService) RetrieveAndAnalyze(ctx context.Context, userToken string, documentIDs, contextDocumentIDs []string, userContext string) (*models.FamilyAnalysisResult, error) {
	if len(documentIDs) == 0 {
		return nil, utils.NewBadRequestError("document_ids is required")
	}

	var fingerprint string
	if s.cache != nil {
		all := append(append([]string{}, documentIDs...), contextDocumentIDs...)
		fingerprint = cache.Fingerprint(all, userContext)

		// Serialize identical requests so concurrent retries share one
		// LLM round trip instead of racing each other.
		unlock := s.cache.Lock(fingerprint)
		defer unlock()

		if cached, err := s.cache.Get(ctx, fingerprint); err != nil {
			s.logger.Warn("Analysis cache read failed", "error", err)
		} else if cached != nil {
			s.logger.Info("Analysis served from cache", "fingerprint", fingerprint[:12])
			return cached, nil
		}
	}

	documents, warnings := s.fetchDocuments(ctx, userToken, documentIDs)
	if len(documents) == 0 {
		return nil, utils.NewRemoteFetchError("None of the requested documents could be retrieved", nil)
	}
	contextDocs, contextWarnings := s.fetchDocuments(ctx, userToken, contextDocumentIDs)
	warnings = append(warnings, contextWarnings...)

	result, err := s.analyzer.AnalyzeFamily(ctx, documents, userContext, contextDocs)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(warnings, result.Warnings...)

	if s.cache != nil {
		if err := s.cache.Put(ctx, fingerprint, result); err != nil {
			s.logger.Warn("Analysis cache write failed", "error", err)
		}
	}

	return result, nil
}

// fetchDocuments pulls each item's metadata and content from the drive.
// Individual failures drop the document and record a warning.
func (s *refreshService) fetchDocuments(ctx context.Context, userToken string, itemIDs []string) ([]models.DocumentRef, []string) {
	var documents []models.DocumentRef
	var warnings []string

	for _, id := range itemIDs {
		meta, err := s.graph.GetMetadata(ctx, userToken, id)
		if err != nil {
			s.logger.Warn("Failed to fetch document metadata", "item_id", id, "error", err)
			warnings = append(warnings, fmt.Sprintf("Could not retrieve document %s: %v", id, err))
			continue
		}
		content, err := s.graph.GetContent(ctx, userToken, id)
		if err != nil {
			s.logger.Warn("Failed to fetch document content", "item_id", id, "filename", meta.Name, "error", err)
			warnings = append(warnings, fmt.Sprintf("Could not retrieve %s: %v", meta.Name, err))
			continue
		}

		documents = append(documents, models.DocumentRef{
			Filename: meta.Name,
			Content:  content,
			Metadata: models.DocumentMetadata{
				Created:  meta.CreatedDateTime,
				Modified: meta.LastModified,
			},
		})
	}

	return documents, warnings
}

func (s *refreshService) AnalyzeFamily(ctx context.Context, documents []models.DocumentRef, userContext string, contextDocuments []models.DocumentRef) (*models.FamilyAnalysisResult, error) {
	if len(documents) == 0 {
		return nil, utils.NewBadRequestError("documents is required")
	}
	return s.analyzer.AnalyzeFamily(ctx, documents, userContext, contextDocuments)
}

func (s *refreshService) GenerateFromSynthesis(ctx context.Context, analysis *models.FamilyAnalysisResult, baseDocumentText, organizationalContext, userChanges, targetYear string) (*GeneratedDocument, error) {
	if analysis == nil {
		return nil, utils.NewBadRequestError("family_analysis is required")
	}
	if baseDocumentText == "" {
		baseDocumentText = analysis.BaseDocumentText
	}
	if organizationalContext == "" {
		organizationalContext = analysis.OrganizationalContext
	}

	synthesis, err := s.analyzer.Synthesize(ctx, analysis, baseDocumentText, userChanges, targetYear, organizationalContext)
	if err != nil {
		return nil, err
	}

	data, err := docgen.FromText(synthesis.GeneratedText)
	if err != nil {
		return nil, utils.NewInternalError(fmt.Sprintf("Failed to render document: %v", err))
	}

	filename := strings.TrimSpace(synthesis.SuggestedFilename)
	if filename == "" {
		filename = fmt.Sprintf("%s - %s.docx", analysis.FamilyTypeDisplay, time.Now().Format("01022006"))
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".docx") {
		filename += ".docx"
	}

	stored := s.store(ctx, data, filename)
	return &GeneratedDocument{Synthesis: synthesis, Stored: stored}, nil
}

// store uploads the rendered document, degrading to inline base64 content
// when blob storage is missing or failing.
func (s *refreshService) store(ctx context.Context, data []byte, filename string) *models.StoredDocument {
	if s.storage != nil {
		stored, err := s.storage.Put(ctx, data, filename, docxContentType)
		if err == nil {
			s.logger.Info("Document stored", "filename", filename, "bytes", len(data))
			return stored
		}
		s.logger.Error("Blob upload failed, falling back to inline content", "filename", filename, "error", err)
	}

	return &models.StoredDocument{
		Filename:    filename,
		Content:     base64.StdEncoding.EncodeToString(data),
		StorageType: "inline",
	}
}

func (s *refreshService) SaveToDrive(ctx context.Context, userToken, downloadURL, filename, folderPath string) (*models.SaveResult, string, error) {
	if downloadURL == "" || filename == "" {
		return nil, "", utils.NewBadRequestError("download_url and filename are required")
	}
	if folderPath == "" {
		folderPath = "Documents"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, "", utils.NewBadRequestError("Invalid download_url")
	}
	resp, err := s.downloader.Do(req)
	if err != nil {
		return nil, "", utils.NewRemoteFetchError("Failed to download generated document", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", utils.NewRemoteFetchError(fmt.Sprintf("Download failed with status %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", utils.NewRemoteFetchError("Failed to read downloaded document", err)
	}

	saved, err := s.graph.SaveFile(ctx, userToken, folderPath, filename, data)
	if err != nil {
		return nil, "", err
	}

	savedPath := strings.Trim(folderPath, "/") + "/" + filename
	s.logger.Info("Document saved to drive", "path", savedPath, "item_id", saved.ItemID)
	return saved, savedPath, nil
}

func (s *refreshService) ExtractSearchIntent(ctx context.Context, prompt string) (*models.SearchIntent, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.NewBadRequestError("prompt is required")
	}
	return s.intents.ExtractSearchIntent(ctx, prompt)
}

func (s *refreshService) ExtractIntent(ctx context.Context, prompt string) (*models.Intent, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.NewBadRequestError("prompt is required")
	}
	return s.intents.ExtractIntent(ctx, prompt)
}

func (s *refreshService) Health(ctx context.Context) map[string]any {
	return map[string]any{
		"status": "healthy",
		"services": map[string]bool{
			"llm":   s.analyzer.Configured(),
			"drive": s.graph.Configured(),
			"blob":  s.storage != nil,
			"cache": s.cache != nil,
		},
	}
}

func (s *refreshService) StorageStatus(ctx context.Context) map[string]any {
	if s.storage == nil {
		return map[string]any{"configured": false}
	}
	return s.storage.Status(ctx)
}
