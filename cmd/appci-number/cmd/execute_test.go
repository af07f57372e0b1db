package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/appci-number/internal/config"
)

// executeChildEnv switches the test binary into running Execute itself.
const executeChildEnv = "APPCI_NUMBER_EXECUTE_CHILD"

// TestExecute_ExitStatus checks that a failed command exits with status 1,
// prints nothing on stdout and reports the error on stderr.
func TestExecute_ExitStatus(t *testing.T) {
	if os.Getenv(executeChildEnv) == "1" {
		os.Args = []string{"appci-number", "apple", "com.example.app"}
		Execute()

		return
	}

	binary, err := os.Executable()
	require.NoError(t, err)

	child := exec.Command(binary, "-test.run=^TestExecute_ExitStatus$")
	child.Dir = t.TempDir()
	child.Env = append(environWithout("APPLE_", "GOOGLE_PLAY_"), executeChildEnv+"=1")

	var stdout, stderr bytes.Buffer
	child.Stdout = &stdout
	child.Stderr = &stderr

	err = child.Run()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.ExitCode())
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "Command failed")
	require.Contains(t, stderr.String(), config.ErrMissingCredential.Error())
	require.Contains(t, stderr.String(), config.EnvApplePrivateKey)
}

func environWithout(prefixes ...string) []string {
	env := make([]string, 0, len(os.Environ()))

	for _, kv := range os.Environ() {
		keep := true

		for _, prefix := range prefixes {
			if strings.HasPrefix(kv, prefix) {
				keep = false

				break
			}
		}

		if keep {
			env = append(env, kv)
		}
	}

	return env
}
