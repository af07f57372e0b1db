package android

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/appci-number/internal/domain/build"
	"github.com/oshokin/appci-number/internal/googleplay"
	"github.com/oshokin/appci-number/internal/logger"
	"github.com/oshokin/appci-number/internal/manifest"
	"github.com/oshokin/appci-number/internal/testutil"
)

func options(t *testing.T, fake *testutil.GooglePlay, out *bytes.Buffer) *Options {
	t.Helper()

	return &Options{
		PackageName: "com.example.app",
		ServiceKey:  testutil.WriteFile(t, "play.json", testutil.ServiceAccountKey(t, fake.TokenURL())),
		Endpoint:    fake.Endpoint(),
		Output:      out,
	}
}

// TestRun_Latest prints the highest version code and discards the edit.
func TestRun_Latest(t *testing.T) {
	t.Parallel()

	fake := testutil.NewGooglePlay(t, 3, 5, 2)

	var out bytes.Buffer

	opts := options(t, fake, &out)
	require.NoError(t, Run(context.Background(), opts))
	require.Equal(t, "5\n", out.String())

	calls := fake.Calls()
	require.NotEmpty(t, calls)
	require.Contains(t, calls[len(calls)-1], "DELETE edit")

	out.Reset()

	opts.Increment = true
	require.NoError(t, Run(context.Background(), opts))
	require.Equal(t, "6\n", out.String())
}

// TestRun_NoResults fails with ErrNoResults.
func TestRun_NoResults(t *testing.T) {
	t.Parallel()

	fake := testutil.NewGooglePlay(t)

	var out bytes.Buffer

	err := Run(context.Background(), options(t, fake, &out))
	require.ErrorIs(t, err, build.ErrNoResults)
	require.Empty(t, out.String())
}

// TestRun_InlineKeyAndManifest accepts inline JSON and writes the manifest.
func TestRun_InlineKeyAndManifest(t *testing.T) {
	t.Parallel()

	fake := testutil.NewGooglePlay(t, 40, 41)

	var out bytes.Buffer

	path := filepath.Join(t.TempDir(), manifest.DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(`{"expo":{"ios":{"buildNumber":"40"},"android":{"versionCode":40}}}`), 0o600))

	opts := options(t, fake, &out)
	opts.ServiceKey = string(testutil.ServiceAccountKey(t, fake.TokenURL()))
	opts.Increment = true
	opts.ManifestPath = path

	require.NoError(t, Run(context.Background(), opts))
	require.Equal(t, "42\n", out.String())

	doc, err := manifest.Read(path)
	require.NoError(t, err)

	m := doc.Manifest()
	require.Equal(t, "42", m.BuildNumber())
	require.Equal(t, int64(42), m.VersionCode())
}

// TestRun_Errors covers an invalid key file and a rejected grant.
func TestRun_Errors(t *testing.T) {
	t.Parallel()

	fake := testutil.NewGooglePlay(t, 1)

	var out bytes.Buffer

	opts := options(t, fake, &out)
	opts.ServiceKey = testutil.WriteFile(t, "play.json", []byte(`{"client_email": ""}`))
	require.ErrorIs(t, Run(context.Background(), opts), googleplay.ErrInvalidKey)
	require.Empty(t, fake.Calls())

	fake.RejectToken()

	opts = options(t, fake, &out)
	require.ErrorIs(t, Run(context.Background(), opts), build.ErrAuth)
	require.Empty(t, out.String())
}

// TestRun_DiscardsEditAfterFailedListing deletes the edit even when listing bundles fails.
func TestRun_DiscardsEditAfterFailedListing(t *testing.T) {
	t.Parallel()

	fake := testutil.NewGooglePlay(t, 1)
	fake.FailWith(testutil.PlayListBundles, http.StatusForbidden)

	var out bytes.Buffer

	err := Run(context.Background(), options(t, fake, &out))
	require.ErrorIs(t, err, build.ErrAuth)
	require.Empty(t, out.String())

	calls := fake.Calls()
	require.NotEmpty(t, calls)
	require.Equal(t, "DELETE edit edit-1", calls[len(calls)-1])
}

// TestRun_FailedDiscardOnlyWarns keeps the result when the edit cannot be deleted.
func TestRun_FailedDiscardOnlyWarns(t *testing.T) {
	t.Parallel()

	fake := testutil.NewGooglePlay(t, 7, 9)
	fake.FailWith(testutil.PlayDeleteEdit, http.StatusInternalServerError)

	var out, logs bytes.Buffer

	ctx := logger.ToContext(context.Background(), logger.New(zapcore.DebugLevel, &logs))

	require.NoError(t, Run(ctx, options(t, fake, &out)))
	require.Equal(t, "9\n", out.String())
	require.Contains(t, logs.String(), "WARN")
	require.Contains(t, logs.String(), "Unable to discard edit")
}
