package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/refresh-agent/refresh-api/internal/utils"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const oboGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// ExtractBearer pulls the raw token out of an Authorization header value.
// Returns an empty string when no bearer token is present.
func ExtractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// tokenExchanger swaps a user's API token for a Graph token via the
// On-Behalf-Of flow, caching results until shortly before expiry.
type tokenExchanger struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu    sync.Mutex
	cache map[string]*oauth2.Token
}

func newTokenExchanger(tenantID, clientID, clientSecret string, httpClient *http.Client) *tokenExchanger {
	endpoint := microsoft.AzureADEndpoint(tenantID)
	return &tokenExchanger{
		tokenURL:     endpoint.TokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		cache:        make(map[string]*oauth2.Token),
	}
}

// Exchange returns a Graph access token for the user behind the assertion.
func (e *tokenExchanger) Exchange(ctx context.Context, userAssertion string) (string, error) {
	key := assertionKey(userAssertion)

	e.mu.Lock()
	if tok, ok := e.cache[key]; ok && tok.Valid() {
		e.mu.Unlock()
		return tok.AccessToken, nil
	}
	e.mu.Unlock()

	form := url.Values{
		"grant_type":          {oboGrantType},
		"client_id":           {e.clientID},
		"client_secret":       {e.clientSecret},
		"assertion":           {userAssertion},
		"scope":               {"https://graph.microsoft.com/.default"},
		"requested_token_use": {"on_behalf_of"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", utils.NewRemoteFetchError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", utils.NewRemoteFetchError("token exchange request failed", err)
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken      string `json:"access_token"`
		ExpiresIn        int    `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", utils.NewRemoteFetchError("failed to decode token response", err)
	}

	if resp.StatusCode != http.StatusOK || body.AccessToken == "" {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			return "", utils.NewUnauthorizedError(fmt.Sprintf("token exchange rejected: %s", body.Error))
		}
		return "", utils.NewRemoteFetchError(fmt.Sprintf("token exchange failed with status %d", resp.StatusCode), nil)
	}

	tok := &oauth2.Token{
		AccessToken: body.AccessToken,
		// Refresh a minute early so in-flight requests never carry a stale token.
		Expiry: time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - time.Minute),
	}

	e.mu.Lock()
	e.cache[key] = tok
	e.mu.Unlock()

	return tok.AccessToken, nil
}

func assertionKey(assertion string) string {
	sum := sha256.Sum256([]byte(assertion))
	return hex.EncodeToString(sum[:])
}
