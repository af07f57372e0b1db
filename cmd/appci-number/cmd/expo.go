package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/appci-number/internal/manifest"
	"github.com/oshokin/appci-number/internal/service/expo"
)

func newExpoCmd() *cobra.Command {
	// path is the manifest to update.
	var path string

	expoCmd := &cobra.Command{
		Use:   "expo [number]",
		Short: "Write a build number into an Expo app.json.",
		Long: `Set expo.ios.buildNumber to the given value and expo.android.versionCode
to its integer form (0 when the value is not numeric). Every other field of
the manifest is kept as is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return expo.Run(cmd.Context(), &expo.Options{
				Path:  path,
				Value: args[0],
			})
		},
	}

	expoCmd.Flags().StringVarP(&path, "path", "p", manifest.DefaultFilename, "the path of app.json")

	return expoCmd
}
