package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/refresh-agent/refresh-api/internal/utils"

	"golang.org/x/time/rate"
)

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer  abc123 ", "abc123"},
		{"Basic dXNlcjpwYXNz", ""},
		{"abc123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractBearer(tt.header); got != tt.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

// newTestClient wires a Client against fake token and Graph endpoints.
func newTestClient(t *testing.T, graphHandler http.Handler) (*Client, func()) {
	t.Helper()

	tokenCalls := 0
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad token request: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != oboGrantType {
			t.Errorf("unexpected grant_type %q", got)
		}
		if got := r.Form.Get("requested_token_use"); got != "on_behalf_of" {
			t.Errorf("unexpected requested_token_use %q", got)
		}
		fmt.Fprint(w, `{"access_token": "graph-token", "expires_in": 3600}`)
	}))

	graphSrv := httptest.NewServer(graphHandler)

	httpClient := &http.Client{Timeout: 5 * time.Second}
	exchanger := newTokenExchanger("tenant", "client-id", "client-secret", httpClient)
	exchanger.tokenURL = tokenSrv.URL

	client := &Client{
		exchanger:  exchanger,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		baseURL:    graphSrv.URL,
		configured: true,
		logger:     utils.NewLogger("error"),
	}

	return client, func() {
		tokenSrv.Close()
		graphSrv.Close()
	}
}

func TestSearchFiltersFolders(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer graph-token" {
			t.Errorf("exchanged token not used, got %q", got)
		}
		fmt.Fprint(w, `{"value": [
			{"id": "1", "name": "calendar-2024.docx", "webUrl": "https://drive/1",
			 "lastModifiedDateTime": "2024-08-01T00:00:00Z", "createdDateTime": "2024-07-01T00:00:00Z",
			 "size": 1234, "parentReference": {"path": "/drive/root:/Calendars"},
			 "file": {"mimeType": "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}},
			{"id": "2", "name": "Calendars", "webUrl": "https://drive/2",
			 "parentReference": {"path": "/drive/root:"}}
		]}`)
	}))
	defer cleanup()

	items, err := client.Search(context.Background(), "user-token", "calendar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected the folder to be filtered out, got %d items", len(items))
	}
	if items[0].Name != "calendar-2024.docx" || items[0].Path != "Calendars" {
		t.Errorf("unexpected item %+v", items[0])
	}
}

func TestSearchRequiresToken(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer cleanup()

	_, err := client.Search(context.Background(), "", "calendar")
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.Code != utils.CodeUnauthorized {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestSearchNotConfigured(t *testing.T) {
	client := &Client{configured: false, logger: utils.NewLogger("error")}
	_, err := client.Search(context.Background(), "tok", "calendar")
	if !utils.IsNotConfigured(err) {
		t.Fatalf("expected NotConfigured, got %v", err)
	}
}

func TestSaveFileCreatesMissingFolder(t *testing.T) {
	var folderCreated bool
	var uploadPath string

	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			// Folder existence probe.
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"code": "itemNotFound"}}`)
		case r.Method == http.MethodPost:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["name"] != "Generated" {
				t.Errorf("unexpected folder name %v", body["name"])
			}
			folderCreated = true
			fmt.Fprint(w, `{"id": "folder-1"}`)
		case r.Method == http.MethodPut:
			uploadPath = r.URL.Path
			if got := r.URL.Query().Get("@microsoft.graph.conflictBehavior"); got != "rename" {
				t.Errorf("expected rename conflict behavior, got %q", got)
			}
			fmt.Fprint(w, `{"id": "item-9", "webUrl": "https://drive/item-9"}`)
		}
	}))
	defer cleanup()

	saved, err := client.SaveFile(context.Background(), "user-token", "Generated", "memo.docx", []byte("docx bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !folderCreated {
		t.Error("missing folder was not created")
	}
	if uploadPath != "/me/drive/root:/Generated/memo.docx:/content" {
		t.Errorf("unexpected upload path %q", uploadPath)
	}
	if saved.ItemID != "item-9" || saved.WebURL != "https://drive/item-9" {
		t.Errorf("unexpected save result %+v", saved)
	}
}

func TestGetMetadataNotFound(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer cleanup()

	_, err := client.GetMetadata(context.Background(), "user-token", "missing")
	if !utils.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTokenExchangeCached(t *testing.T) {
	calls := 0
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"access_token": "tok", "expires_in": 3600}`)
	}))
	defer tokenSrv.Close()

	exchanger := newTokenExchanger("tenant", "id", "secret", &http.Client{Timeout: 5 * time.Second})
	exchanger.tokenURL = tokenSrv.URL

	for i := 0; i < 3; i++ {
		if _, err := exchanger.Exchange(context.Background(), "same-assertion"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one token exchange, got %d", calls)
	}

	if _, err := exchanger.Exchange(context.Background(), "other-assertion"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("different assertions must not share tokens, got %d calls", calls)
	}
}
