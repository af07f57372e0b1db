package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// AppStoreRequest records what the fake App Store Connect received.
type AppStoreRequest struct {
	Authorization string
	AppID         string
	Version       string
	Limit         string
	Sort          string
}

// AppStore is an in-process fake of the App Store Connect builds endpoint.
type AppStore struct {
	*httptest.Server

	mu       sync.Mutex
	versions []string
	status   int
	requests []AppStoreRequest
}

// NewAppStore starts a fake returning versions for every builds query.
func NewAppStore(t *testing.T, versions ...string) *AppStore {
	t.Helper()

	fake := &AppStore{
		versions: versions,
		status:   http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/builds", fake.handleBuilds)

	fake.Server = httptest.NewServer(mux)
	t.Cleanup(fake.Close)

	return fake
}

// FailWith makes every following request answer with status and an App Store Connect error document.
func (f *AppStore) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status = status
}

// Requests returns the requests served so far.
func (f *AppStore) Requests() []AppStoreRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]AppStoreRequest(nil), f.requests...)
}

func (f *AppStore) handleBuilds(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := r.URL.Query()
	f.requests = append(f.requests, AppStoreRequest{
		Authorization: r.Header.Get("Authorization"),
		AppID:         query.Get("filter[app]"),
		Version:       query.Get("filter[preReleaseVersion.version]"),
		Limit:         query.Get("limit"),
		Sort:          query.Get("sort"),
	})

	w.Header().Set("Content-Type", "application/json")

	if f.status != http.StatusOK || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		status := f.status
		if status == http.StatusOK {
			status = http.StatusUnauthorized
		}

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{{
				"status": http.StatusText(status),
				"code":   "NOT_AUTHORIZED",
				"title":  "Authentication credentials are missing or invalid.",
				"detail": "Provide a properly configured and signed bearer token.",
			}},
		})

		return
	}

	data := make([]map[string]any, 0, len(f.versions))
	for i, version := range f.versions {
		data = append(data, map[string]any{
			"type":       "builds",
			"id":         "build-" + string(rune('a'+i)),
			"attributes": map[string]any{"version": version},
		})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}
