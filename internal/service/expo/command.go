package expo

import (
	"context"

	"github.com/oshokin/appci-number/internal/logger"
	"github.com/oshokin/appci-number/internal/manifest"
)

// Options controls which manifest is written and with what.
type Options struct {
	// Path of the manifest; manifest.DefaultFilename when empty.
	Path string
	// Value is the build number as typed on the command line.
	Value string
}

// Run writes opts.Value into the manifest.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "expo")

	doc, err := manifest.Write(opts.Path, opts.Value)
	if err != nil {
		return err
	}

	m := doc.Manifest()
	logger.InfoKV(ctx, "Manifest updated",
		"path", doc.Path(),
		"ios_build_number", m.BuildNumber(),
		"android_version_code", m.VersionCode())

	return nil
}
