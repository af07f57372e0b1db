//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/oshokin/appci-number/internal/config"
	"github.com/oshokin/appci-number/internal/logger"
	"github.com/oshokin/appci-number/internal/manifest"
)

// Publish prints number as the command result and, when manifestPath is set,
// writes it into that Expo manifest.
func Publish(ctx context.Context, out io.Writer, number int64, manifestPath string) error {
	if out == nil {
		out = os.Stdout
	}

	if _, err := fmt.Fprintln(out, number); err != nil {
		return fmt.Errorf("print build number: %w", err)
	}

	if manifestPath == "" {
		return nil
	}

	doc, err := manifest.Write(manifestPath, strconv.FormatInt(number, 10))
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Manifest updated", "path", doc.Path(), "build_number", number)

	return nil
}

// HTTPClient returns a client whose requests are bounded by timeout.
// A non-positive timeout falls back to config.DefaultTimeout.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	return &http.Client{Timeout: timeout}
}
