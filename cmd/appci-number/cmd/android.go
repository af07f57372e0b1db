package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/appci-number/internal/config"
	"github.com/oshokin/appci-number/internal/service/android"
)

func newAndroidCmd(a *app) *cobra.Command {
	var (
		// serviceKey is the service account key flag value.
		serviceKey string
		// increment adds one to the latest version code.
		increment bool
		// manifestPath is the app.json to update.
		manifestPath string
	)

	androidCmd := &cobra.Command{
		Use:   "android [package_name]",
		Short: "Print the latest Google Play version code.",
		Long: `Authorize a Google Cloud service account for the Play Developer API, open a
temporary edit for the package and print the highest version code among its
uploaded bundles. The edit is discarded afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Resolve the key before any I/O.
			key, err := a.settings.ResolveGoogleServiceKey(serviceKey, a.env)
			if err != nil {
				return err
			}

			return android.Run(cmd.Context(), &android.Options{
				PackageName:  args[0],
				ServiceKey:   key,
				Endpoint:     a.settings.Google.Endpoint,
				Timeout:      a.settings.Timeout,
				Increment:    increment,
				ManifestPath: manifestPath,
				Output:       a.stdout,
			})
		},
	}

	flags := androidCmd.Flags()
	flags.StringVarP(&serviceKey, "key", "k", "", "your google play service key or use "+config.EnvGooglePlayServiceKey)
	flags.BoolVarP(&increment, "increment", "i", false, "increment build number")
	flags.StringVar(&manifestPath, "expo", "", "sets the build number to expo app.json")

	return androidCmd
}
