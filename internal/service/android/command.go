package android

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oshokin/appci-number/internal/config"
	"github.com/oshokin/appci-number/internal/domain/build"
	"github.com/oshokin/appci-number/internal/googleplay"
	"github.com/oshokin/appci-number/internal/logger"
	"github.com/oshokin/appci-number/internal/service/common"
)

// Options is the resolved input of one android run.
type Options struct {
	// PackageName is the application ID, e.g. com.example.app.
	PackageName string
	// ServiceKey is a path to the service account JSON key or the JSON itself.
	ServiceKey string
	// Endpoint overrides the Publisher API root.
	Endpoint string
	// Timeout bounds each API call.
	Timeout time.Duration
	// Increment adds one to the latest version code.
	Increment bool
	// ManifestPath, when set, receives the resulting number.
	ManifestPath string
	// Output receives the resulting number; stdout when nil.
	Output io.Writer
}

// Run authorizes the service account, reads bundle version codes through a
// throwaway edit and publishes the latest one.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "android")
	ctx = logger.WithKV(ctx, "package", opts.PackageName)

	contents, err := config.ReadSecret(opts.ServiceKey)
	if err != nil {
		return err
	}

	key, err := googleplay.ParseServiceAccountKey(contents)
	if err != nil {
		return err
	}

	client, err := googleplay.Dial(
		ctx,
		key,
		googleplay.WithEndpoint(opts.Endpoint),
		googleplay.WithHTTPClient(common.HTTPClient(opts.Timeout)),
	)
	if err != nil {
		return err
	}

	codes, err := versionCodes(ctx, client, opts.PackageName)
	if err != nil {
		return err
	}

	latest, err := build.Latest(codes)
	if err != nil {
		return fmt.Errorf("package %s: %w", opts.PackageName, err)
	}

	next := build.Next(latest, opts.Increment)
	logger.InfoKV(ctx, "Resolved version code", "latest", latest, "version_code", next)

	return common.Publish(ctx, opts.Output, next, opts.ManifestPath)
}

// versionCodes reads bundle version codes inside a new edit and discards the
// edit afterwards. A failed discard is only logged; Play expires edits anyway.
func versionCodes(ctx context.Context, client *googleplay.Client, packageName string) ([]int64, error) {
	editID, err := client.InsertEdit(ctx, packageName)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Edit opened", "edit", editID)

	defer func() {
		if err := client.DeleteEdit(ctx, packageName, editID); err != nil {
			logger.WarnKV(ctx, "Unable to discard edit", "edit", editID, "error", err)
		}
	}()

	return client.BundleVersionCodes(ctx, packageName, editID)
}
