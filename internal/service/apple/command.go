package apple

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/appci-number/internal/appstore"
	"github.com/oshokin/appci-number/internal/config"
	"github.com/oshokin/appci-number/internal/domain/build"
	"github.com/oshokin/appci-number/internal/logger"
	"github.com/oshokin/appci-number/internal/service/common"
)

// Options is the resolved input of one apple run.
type Options struct {
	// AppID is the App Store Connect app identifier.
	AppID string
	// AppVersion optionally narrows builds to one version string.
	AppVersion string
	// Credentials sign the API token.
	Credentials config.AppleCredentials
	// BaseURL overrides appstore.DefaultBaseURL.
	BaseURL string
	// Timeout bounds the API call.
	Timeout time.Duration
	// Increment adds one to the latest build number.
	Increment bool
	// ManifestPath, when set, receives the resulting number.
	ManifestPath string
	// Output receives the resulting number; stdout when nil.
	Output io.Writer
}

// Run signs a token, lists the builds and publishes the latest build number.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "apple")
	ctx = logger.WithKV(ctx, "app", opts.AppID)

	keyPEM, err := config.ReadSecret(opts.Credentials.PrivateKey)
	if err != nil {
		return err
	}

	signer, err := appstore.NewSigner(keyPEM, opts.Credentials.KeyIdentifier, opts.Credentials.IssuerID)
	if err != nil {
		return err
	}

	client, err := appstore.NewClient(
		signer,
		appstore.WithBaseURL(opts.BaseURL),
		appstore.WithHTTPClient(common.HTTPClient(opts.Timeout)),
	)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Listing builds", "version", opts.AppVersion)

	builds, err := client.ListBuilds(ctx, appstore.BuildsQuery{
		AppID:   opts.AppID,
		Version: opts.AppVersion,
	})
	if err != nil {
		return fmt.Errorf("list builds: %w", err)
	}

	numbers := make([]int64, 0, len(builds))
	for _, b := range builds {
		number, ok := build.ParseNumber(b.Version)
		if !ok {
			logger.WarnKV(ctx, "Skipping build with a non-numeric version", "build", b.ID, "version", b.Version)
			continue
		}

		numbers = append(numbers, number)
	}

	latest, err := build.Latest(numbers)
	if err != nil {
		return fmt.Errorf("app %s: %w", opts.AppID, err)
	}

	next := build.Next(latest, opts.Increment)
	logger.InfoKV(ctx, "Resolved build number", "latest", latest, "build_number", next)

	return common.Publish(ctx, opts.Output, next, opts.ManifestPath)
}
