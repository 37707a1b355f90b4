package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/refresh-agent/refresh-api/internal/config"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"

	"golang.org/x/time/rate"
)

const (
	graphBaseURL     = "https://graph.microsoft.com/v1.0"
	maxSearchResults = 25
)

// Client talks to Microsoft Graph on behalf of the signed-in user.
type Client struct {
	exchanger  *tokenExchanger
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	configured bool
	logger     *utils.Logger
}

func NewClient(cfg *config.Config, logger *utils.Logger) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Client{
		exchanger:  newTokenExchanger(cfg.EntraTenantID, cfg.EntraClientID, cfg.EntraClientSecret, httpClient),
		httpClient: httpClient,
		// Graph throttles bursty callers; stay well under its limits.
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
		baseURL:    graphBaseURL,
		configured: cfg.GraphConfigured(),
		logger:     logger,
	}
}

// Configured reports whether Entra credentials are present.
func (c *Client) Configured() bool {
	return c.configured
}

// Search looks for files in the user's drive matching the query terms.
func (c *Client) Search(ctx context.Context, userToken, query string) ([]models.DriveItem, error) {
	path := fmt.Sprintf("/me/drive/root/search(q='%s')?$top=%d&$select=id,name,webUrl,size,lastModifiedDateTime,createdDateTime,parentReference,file",
		url.PathEscape(strings.ReplaceAll(query, "'", "''")), maxSearchResults)

	body, err := c.get(ctx, userToken, path)
	if err != nil {
		return nil, err
	}

	var result struct {
		Value []driveItemResponse `json:"value"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, utils.NewRemoteFetchError("failed to decode search results", err)
	}

	items := make([]models.DriveItem, 0, len(result.Value))
	for _, v := range result.Value {
		// Folders come back from search too; callers only want files.
		if v.File == nil {
			continue
		}
		items = append(items, v.toModel())
	}
	return items, nil
}

// GetMetadata fetches a single item's metadata.
func (c *Client) GetMetadata(ctx context.Context, userToken, itemID string) (*models.DriveItem, error) {
	body, err := c.get(ctx, userToken, fmt.Sprintf("/me/drive/items/%s?$select=id,name,webUrl,size,lastModifiedDateTime,createdDateTime,parentReference,file", url.PathEscape(itemID)))
	if err != nil {
		return nil, err
	}

	var item driveItemResponse
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, utils.NewRemoteFetchError("failed to decode item metadata", err)
	}
	m := item.toModel()
	return &m, nil
}

// GetContent downloads an item's raw bytes.
func (c *Client) GetContent(ctx context.Context, userToken, itemID string) ([]byte, error) {
	return c.get(ctx, userToken, fmt.Sprintf("/me/drive/items/%s/content", url.PathEscape(itemID)))
}

// SaveFile uploads data into the given folder, creating the folder when it
// does not exist. Name conflicts rename the new file instead of overwriting.
func (c *Client) SaveFile(ctx context.Context, userToken, folderPath, filename string, data []byte) (*models.SaveResult, error) {
	folderPath = strings.Trim(folderPath, "/")
	if folderPath != "" {
		if err := c.ensureFolder(ctx, userToken, folderPath); err != nil {
			return nil, err
		}
	}

	var uploadPath string
	if folderPath == "" {
		uploadPath = fmt.Sprintf("/me/drive/root:/%s:/content", escapeDrivePath(filename))
	} else {
		uploadPath = fmt.Sprintf("/me/drive/root:/%s/%s:/content", escapeDrivePath(folderPath), escapeDrivePath(filename))
	}
	uploadPath += "?@microsoft.graph.conflictBehavior=rename"

	body, err := c.do(ctx, userToken, http.MethodPut, uploadPath, data, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	if err != nil {
		return nil, err
	}

	var saved struct {
		ID     string `json:"id"`
		WebURL string `json:"webUrl"`
	}
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, utils.NewRemoteFetchError("failed to decode upload response", err)
	}

	return &models.SaveResult{WebURL: saved.WebURL, ItemID: saved.ID}, nil
}

// ensureFolder creates folderPath under the drive root when missing.
func (c *Client) ensureFolder(ctx context.Context, userToken, folderPath string) error {
	_, err := c.get(ctx, userToken, fmt.Sprintf("/me/drive/root:/%s", escapeDrivePath(folderPath)))
	if err == nil {
		return nil
	}
	if !utils.IsNotFound(err) {
		return err
	}

	payload, _ := json.Marshal(map[string]any{
		"name":                              folderPath,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "rename",
	})
	_, err = c.do(ctx, userToken, http.MethodPost, "/me/drive/root/children", payload, "application/json")
	return err
}

func (c *Client) get(ctx context.Context, userToken, path string) ([]byte, error) {
	return c.do(ctx, userToken, http.MethodGet, path, nil, "")
}

func (c *Client) do(ctx context.Context, userToken, method, path string, body []byte, contentType string) ([]byte, error) {
	if !c.configured {
		return nil, utils.NewNotConfiguredError("Drive integration is not configured")
	}
	if userToken == "" {
		return nil, utils.NewUnauthorizedError("Missing bearer token")
	}

	graphToken, err := c.exchanger.Exchange(ctx, userToken)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, utils.NewRemoteFetchError("rate limit wait interrupted", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, utils.NewRemoteFetchError("failed to build drive request", err)
	}
	req.Header.Set("Authorization", "Bearer "+graphToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewRemoteFetchError("drive request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewRemoteFetchError("failed to read drive response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, utils.NewUnauthorizedError("Drive access denied")
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.NewNotFoundError("Drive item not found")
	default:
		c.logger.Error("drive request failed", "status", resp.StatusCode, "path", path)
		return nil, utils.NewRemoteFetchError(fmt.Sprintf("drive request failed with status %d", resp.StatusCode), nil)
	}
}

// escapeDrivePath escapes each path segment while keeping separators.
func escapeDrivePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

type driveItemResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	WebURL               string `json:"webUrl"`
	Size                 int64  `json:"size"`
	LastModifiedDateTime string `json:"lastModifiedDateTime"`
	CreatedDateTime      string `json:"createdDateTime"`
	ParentReference      *struct {
		Path string `json:"path"`
	} `json:"parentReference"`
	File *struct {
		MimeType string `json:"mimeType"`
	} `json:"file"`
}

func (d driveItemResponse) toModel() models.DriveItem {
	item := models.DriveItem{
		ID:              d.ID,
		Name:            d.Name,
		WebURL:          d.WebURL,
		Size:            d.Size,
		LastModified:    d.LastModifiedDateTime,
		CreatedDateTime: d.CreatedDateTime,
	}
	if d.ParentReference != nil {
		// Graph paths look like "/drive/root:/Folder/Sub"; keep the readable tail.
		if idx := strings.Index(d.ParentReference.Path, "root:"); idx >= 0 {
			item.Path = strings.TrimPrefix(d.ParentReference.Path[idx+len("root:"):], "/")
		}
	}
	return item
}
