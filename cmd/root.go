package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configDir string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smapi-profiles",
	Short: "Group installed mods into profiles and launch the game with one of them",
	Long: `smapi-profiles keeps a record of the mods in your Mods folder, lets you
group them into named profiles and builds one folder of links per profile.
Launching a profile points the mod loader at that folder, so the game only
sees the mods you picked.

Running without a subcommand opens the interactive profile picker.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding setting.toml (default: user data dir)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
