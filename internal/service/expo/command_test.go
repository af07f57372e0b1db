package expo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/appci-number/internal/manifest"
)

// TestRun writes the value into both platform fields.
func TestRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"expo":{"ios":{"buildNumber":"1"},"android":{"versionCode":1}}}`), 0o600))

	require.NoError(t, Run(context.Background(), &Options{Path: path, Value: "42"}))

	doc, err := manifest.Read(path)
	require.NoError(t, err)

	m := doc.Manifest()
	require.Equal(t, "42", m.BuildNumber())
	require.Equal(t, int64(42), m.VersionCode())
}

// TestRun_DefaultPath uses app.json in the working directory.
func TestRun_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(manifest.DefaultFilename, []byte(`{"expo":{"ios":{},"android":{}}}`), 0o600))
	require.NoError(t, Run(context.Background(), &Options{Value: "next"}))

	doc, err := manifest.Read(filepath.Join(dir, manifest.DefaultFilename))
	require.NoError(t, err)

	m := doc.Manifest()
	require.Equal(t, "next", m.BuildNumber())
	require.Equal(t, int64(0), m.VersionCode())
}
