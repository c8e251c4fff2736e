package cmd

import (
	"fmt"
	"path/filepath"

	"smapi-profiles/config"
	"smapi-profiles/ui"

	"github.com/spf13/cobra"
)

var (
	initModsDir     string
	initSMAPIPath   string
	initProfilesDir string
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Save the Mods folder and SMAPI paths, then register the mods found",
	Long: `Writes setting.toml and performs the first scan.
Example: smapi-profiles init --mods-dir "C:\Program Files (x86)\Steam\steamapps\common\Stardew Valley\Mods" \
    --smapi "C:\Program Files (x86)\Steam\steamapps\common\Stardew Valley\StardewModdingAPI.exe"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := configDir
		if dir == "" {
			dir = config.DefaultDir()
		}

		cfg, err := initConfig(initModsDir, initSMAPIPath, initProfilesDir)
		if err != nil {
			return err
		}
		if err := config.Save(dir, cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Render("Saved "+config.Path(dir)))

		return runScan(cmd)
	},
}

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the saved paths; profiles and the database are kept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := configDir
		if dir == "" {
			dir = config.DefaultDir()
		}
		if err := config.Reset(dir); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration cleared. Run `smapi-profiles init` to set it up again.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(resetCmd)

	initCmd.Flags().StringVar(&initModsDir, "mods-dir", "", "folder containing one directory per mod")
	initCmd.Flags().StringVar(&initSMAPIPath, "smapi", "", "path to the StardewModdingAPI executable")
	initCmd.Flags().StringVar(&initProfilesDir, "profiles-dir", "", "where profile folders are built (default: next to setting.toml)")
	_ = initCmd.MarkFlagRequired("mods-dir")
}

// initConfig builds the saved configuration. Every given path is made
// absolute so later runs do not depend on the working directory.
func initConfig(modsDir, smapiPath, profilesDir string) (config.Config, error) {
	cfg := config.Config{ModsDir: modsDir, SMAPIPath: smapiPath, ProfilesDir: profilesDir}
	for _, p := range []*string{&cfg.ModsDir, &cfg.SMAPIPath, &cfg.ProfilesDir} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to resolve %q: %w", *p, err)
		}
		*p = abs
	}
	return cfg, nil
}
