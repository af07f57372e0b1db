package appstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/oshokin/appci-number/internal/domain/build"
	"github.com/oshokin/appci-number/internal/logger"
)

const (
	// DefaultBaseURL is the App Store Connect API root.
	DefaultBaseURL = "https://api.appstoreconnect.apple.com"

	buildsPath = "/v1/builds"

	// pageLimit is the largest page App Store Connect serves for builds.
	pageLimit = 200

	// newestFirst puts the most recent uploads on the single page fetched.
	newestFirst = "-uploadedDate"

	// maxErrorBody caps how much of a failed response is read for the error message.
	maxErrorBody = 64 << 10
)

// TokenSource yields bearer tokens; Signer implements it.
type TokenSource interface {
	Token() (string, error)
}

// Client queries the App Store Connect builds endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

var errTokenSourceRequired = errors.New("token source must be provided")

// NewClient creates a client that authenticates with tokens.
func NewClient(tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errTokenSourceRequired
	}

	client := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		tokens:     tokens,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// BuildsQuery narrows the builds listing.
type BuildsQuery struct {
	// AppID is the App Store Connect app identifier (filter[app]).
	AppID string
	// Version limits builds to one pre-release version string, e.g. "1.2.3".
	Version string
}

// Build is one entry of the builds listing.
type Build struct {
	// ID is the App Store Connect resource identifier.
	ID string
	// Version is the build number (CFBundleVersion) as reported by Apple.
	Version string
}

type buildsResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Version string `json:"version"`
		} `json:"attributes"`
	} `json:"data"`
}

type errorResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Code   string `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// ListBuilds performs one authenticated GET of the builds endpoint.
func (c *Client) ListBuilds(ctx context.Context, query BuildsQuery) ([]Build, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	endpoint, err := c.buildsURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	logger.Debugf(ctx, "GET %s", endpoint)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", build.ErrNetwork, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, statusError(response)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read builds: %w", build.ErrNetwork, err)
	}

	var decoded buildsResponse
	if err = sonic.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode builds: %w", build.ErrNetwork, err)
	}

	builds := make([]Build, 0, len(decoded.Data))
	for _, resource := range decoded.Data {
		builds = append(builds, Build{
			ID:      resource.ID,
			Version: resource.Attributes.Version,
		})
	}

	return builds, nil
}

func (c *Client) buildsURL(query BuildsQuery) (string, error) {
	endpoint, err := url.Parse(c.baseURL + buildsPath)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	values := url.Values{}
	values.Set("filter[app]", query.AppID)
	values.Set("limit", strconv.Itoa(pageLimit))
	values.Set("sort", newestFirst)

	if query.Version != "" {
		values.Set("filter[preReleaseVersion.version]", query.Version)
	}

	endpoint.RawQuery = values.Encode()

	return endpoint.String(), nil
}

// statusError turns a non-200 response into ErrAuth or ErrNetwork, keeping
// the first App Store Connect error detail when the body carries one.
func statusError(response *http.Response) error {
	kind := build.ErrNetwork
	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		kind = build.ErrAuth
	}

	body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))

	var decoded errorResponse
	if err := sonic.Unmarshal(body, &decoded); err == nil && len(decoded.Errors) > 0 {
		first := decoded.Errors[0]

		detail := first.Detail
		if detail == "" {
			detail = first.Title
		}

		return fmt.Errorf("%w: %s: %s: %s", kind, response.Status, first.Code, detail)
	}

	return fmt.Errorf("%w: %s", kind, response.Status)
}
