package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// PlayAccessToken is the bearer token handed out by the fake token endpoint.
const PlayAccessToken = "fake-play-access-token"

// editID is the identifier of every edit the fake creates.
const editID = "edit-1"

// Publisher API operations that GooglePlay.FailWith can break.
const (
	PlayInsertEdit  = "insert"
	PlayListBundles = "bundles"
	PlayDeleteEdit  = "delete"
)

// GooglePlay is an in-process fake of the OAuth2 token endpoint and the
// edits/bundles part of the Google Play Developer API.
type GooglePlay struct {
	*httptest.Server

	mu           sync.Mutex
	versionCodes []int64
	rejectToken  bool
	failures     map[string]int
	calls        []string
}

// NewGooglePlay starts a fake whose bundle list carries versionCodes.
func NewGooglePlay(t *testing.T, versionCodes ...int64) *GooglePlay {
	t.Helper()

	fake := &GooglePlay{
		versionCodes: versionCodes,
		failures:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", fake.handleToken)
	mux.HandleFunc("POST /androidpublisher/v3/applications/{pkg}/edits", fake.handleInsert)
	mux.HandleFunc("GET /androidpublisher/v3/applications/{pkg}/edits/{edit}/bundles", fake.handleBundles)
	mux.HandleFunc("DELETE /androidpublisher/v3/applications/{pkg}/edits/{edit}", fake.handleDelete)

	fake.Server = httptest.NewServer(mux)
	t.Cleanup(fake.Close)

	return fake
}

// TokenURL is the token_uri to put into service account keys.
func (f *GooglePlay) TokenURL() string {
	return f.URL + "/token"
}

// Endpoint is the Publisher API root to pass to the client.
func (f *GooglePlay) Endpoint() string {
	return f.URL + "/"
}

// RejectToken makes the token endpoint refuse every grant.
func (f *GooglePlay) RejectToken() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rejectToken = true
}

// FailWith makes every following call of operation answer with status and a
// Google API error document.
func (f *GooglePlay) FailWith(operation string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[operation] = status
}

// Calls returns "METHOD name" entries for every API call, in order.
func (f *GooglePlay) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

func (f *GooglePlay) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
}

func (f *GooglePlay) handleToken(w http.ResponseWriter, r *http.Request) {
	f.record("POST token")

	f.mu.Lock()
	reject := f.rejectToken
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if reject || r.FormValue("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" || r.FormValue("assertion") == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid JWT Signature.",
		})

		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": PlayAccessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

// serve reports whether the handler for operation should answer normally,
// writing an error document otherwise.
func (f *GooglePlay) serve(w http.ResponseWriter, r *http.Request, operation string) bool {
	if r.Header.Get("Authorization") != "Bearer "+PlayAccessToken {
		writeAPIError(w, http.StatusUnauthorized, "Request had invalid authentication credentials.")

		return false
	}

	f.mu.Lock()
	status, failed := f.failures[operation]
	f.mu.Unlock()

	if failed {
		writeAPIError(w, status, "The caller does not have permission")

		return false
	}

	return true
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
			"status":  http.StatusText(status),
		},
	})
}

func (f *GooglePlay) handleInsert(w http.ResponseWriter, r *http.Request) {
	f.record("POST edits " + r.PathValue("pkg"))

	if !f.serve(w, r, PlayInsertEdit) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":                editID,
		"expiryTimeSeconds": "1760000000",
	})
}

func (f *GooglePlay) handleBundles(w http.ResponseWriter, r *http.Request) {
	f.record("GET bundles " + r.PathValue("edit"))

	if !f.serve(w, r, PlayListBundles) {
		return
	}

	f.mu.Lock()
	codes := append([]int64(nil), f.versionCodes...)
	f.mu.Unlock()

	bundles := make([]map[string]any, 0, len(codes))
	for _, code := range codes {
		bundles = append(bundles, map[string]any{
			"versionCode": code,
			"sha1":        "sha1-" + strconv.FormatInt(code, 10),
			"sha256":      "sha256-" + strconv.FormatInt(code, 10),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"kind":    "androidpublisher#bundlesListResponse",
		"bundles": bundles,
	})
}

func (f *GooglePlay) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.record("DELETE edit " + r.PathValue("edit"))

	if !f.serve(w, r, PlayDeleteEdit) {
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
