package googleplay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/oshokin/appci-number/internal/domain/build"
)

// Scope is the OAuth2 scope of the Publisher API.
const Scope = androidpublisher.AndroidpublisherScope

var errKeyRequired = errors.New("service account key must be provided")

// Client wraps the generated Publisher API service.
type Client struct {
	api *androidpublisher.Service
}

type options struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures Dial.
type Option func(*options)

// WithEndpoint overrides the Publisher API root.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		if endpoint != "" {
			o.endpoint = strings.TrimRight(endpoint, "/") + "/"
		}
	}
}

// WithHTTPClient sets the client used for the token exchange and API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		if httpClient != nil {
			o.httpClient = httpClient
		}
	}
}

// Dial exchanges a signed JWT for an access token and prepares the API client.
// A rejected grant is reported as build.ErrAuth.
func Dial(ctx context.Context, key *ServiceAccountKey, opts ...Option) (*Client, error) {
	if key == nil {
		return nil, errKeyRequired
	}

	o := &options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}

	tokenURL := key.TokenURI
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}

	conf := &jwt.Config{
		Email:        key.ClientEmail,
		PrivateKey:   []byte(key.PrivateKey),
		PrivateKeyID: key.PrivateKeyID,
		Scopes:       []string{Scope},
		TokenURL:     tokenURL,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	source := conf.TokenSource(ctx)

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: authorize %s: %w", build.ErrAuth, key.ClientEmail, err)
	}

	// oauth2.NewClient keeps only the base transport.
	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source))
	httpClient.Timeout = o.httpClient.Timeout

	clientOptions := []option.ClientOption{
		option.WithHTTPClient(httpClient),
	}

	if o.endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(o.endpoint))
	}

	api, err := androidpublisher.NewService(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("create publisher service: %w", err)
	}

	return &Client{api: api}, nil
}

// InsertEdit opens a new edit session for packageName and returns its ID.
func (c *Client) InsertEdit(ctx context.Context, packageName string) (string, error) {
	edit, err := c.api.Edits.Insert(packageName, &androidpublisher.AppEdit{}).Context(ctx).Do()
	if err != nil {
		return "", apiError("insert edit", err)
	}

	return edit.Id, nil
}

// BundleVersionCodes lists the version codes of the bundles attached to an edit.
func (c *Client) BundleVersionCodes(ctx context.Context, packageName, editID string) ([]int64, error) {
	response, err := c.api.Edits.Bundles.List(packageName, editID).Context(ctx).Do()
	if err != nil {
		return nil, apiError("list bundles", err)
	}

	codes := make([]int64, 0, len(response.Bundles))
	for _, bundle := range response.Bundles {
		if bundle == nil {
			continue
		}

		codes = append(codes, bundle.VersionCode)
	}

	return codes, nil
}

// DeleteEdit discards an edit without committing it.
func (c *Client) DeleteEdit(ctx context.Context, packageName, editID string) error {
	if err := c.api.Edits.Delete(packageName, editID).Context(ctx).Do(); err != nil {
		return apiError("delete edit", err)
	}

	return nil
}

// apiError classifies Publisher API failures as build.ErrAuth or build.ErrNetwork.
func apiError(operation string, err error) error {
	var (
		apiErr      *googleapi.Error
		retrieveErr *oauth2.RetrieveError
	)

	switch {
	case errors.As(err, &apiErr) &&
		(apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden):
		return fmt.Errorf("%w: %s: %w", build.ErrAuth, operation, err)
	case errors.As(err, &retrieveErr):
		return fmt.Errorf("%w: %s: %w", build.ErrAuth, operation, err)
	default:
		return fmt.Errorf("%w: %s: %w", build.ErrNetwork, operation, err)
	}
}
