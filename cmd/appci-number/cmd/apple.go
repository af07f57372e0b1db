package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/appci-number/internal/config"
	"github.com/oshokin/appci-number/internal/service/apple"
)

func newAppleCmd(a *app) *cobra.Command {
	var (
		// credentials holds the flag values; empty ones fall back to env and settings.
		credentials config.AppleCredentials
		// appVersion narrows builds to one version string.
		appVersion string
		// increment adds one to the latest build number.
		increment bool
		// manifestPath is the app.json to update.
		manifestPath string
	)

	appleCmd := &cobra.Command{
		Use:   "apple [app_identifier]",
		Short: "Print the latest App Store Connect build number.",
		Long: `Sign an App Store Connect API token with your private key, list the builds
of the app (optionally for one version) and print the highest build number.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Resolve every credential before any I/O.
			resolved, err := a.settings.ResolveApple(credentials, a.env)
			if err != nil {
				return err
			}

			return apple.Run(cmd.Context(), &apple.Options{
				AppID:        args[0],
				AppVersion:   appVersion,
				Credentials:  resolved,
				BaseURL:      a.settings.Apple.BaseURL,
				Timeout:      a.settings.Timeout,
				Increment:    increment,
				ManifestPath: manifestPath,
				Output:       a.stdout,
			})
		},
	}

	flags := appleCmd.Flags()
	flags.StringVarP(&appVersion, "app_version", "V", "", "the version number whose latest build number we want")
	flags.StringVarP(&credentials.PrivateKey, "private_key", "k", "",
		"your private key file or use "+config.EnvApplePrivateKey)
	flags.StringVarP(&credentials.KeyIdentifier, "key_identifier", "K", "",
		"your private key ID from App Store Connect (Ex: 2X9R4HXF34) or use "+config.EnvAppleKeyIdentifier)
	flags.StringVarP(&credentials.IssuerID, "issuer_id", "S", "",
		"your issuer ID from the API Keys page in App Store Connect "+
			"(Ex: 57246542-96fe-1a63-e053-0824d011072a) or use "+config.EnvAppleIssuerID)
	flags.BoolVarP(&increment, "increment", "i", false, "increment build number")
	flags.StringVar(&manifestPath, "expo", "", "sets the build number to expo app.json")

	return appleCmd
}
