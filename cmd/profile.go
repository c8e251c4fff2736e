package cmd

import (
	"fmt"

	"smapi-profiles/ui"

	"github.com/spf13/cobra"
)

var profileDescription string

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Create, fill and delete profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		profiles, err := a.mgr.ListProfiles(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(profiles) == 0 {
			fmt.Fprintln(out, ui.Muted.Render("No profiles. Create one with `smapi-profiles profile create <name>`."))
			return nil
		}
		fmt.Fprintln(out, ui.Header.Render(fmt.Sprintf("%-24s %-20s %s", "Profile", "Created", "Description")))
		for _, p := range profiles {
			fmt.Fprintf(out, "%-24s %-20s %s\n",
				ui.Truncate(p.Name, 24),
				p.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				p.Description,
			)
		}
		return nil
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an empty profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.mgr.CreateProfile(cmd.Context(), args[0], profileDescription)
		if err := settle(cmd.OutOrStdout(), err); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Render("Created profile "+args[0]))
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a profile and its folder of links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		remaining, err := a.mgr.DeleteProfile(cmd.Context(), args[0])
		if err := settle(cmd.OutOrStdout(), err); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Render(fmt.Sprintf("Deleted profile %s (%d left)", args[0], remaining)))
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "List the mods of a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		members, err := a.mgr.MembersOf(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		dir, err := a.mgr.ProfileDir(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(dir))
		printMods(cmd.OutOrStdout(), members)
		return nil
	},
}

var profileAddCmd = &cobra.Command{
	Use:   "add [name] [uniqueID...]",
	Short: "Add mods to a profile",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := settle(cmd.OutOrStdout(), a.mgr.AddModsToProfile(cmd.Context(), args[0], args[1:])); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Render(fmt.Sprintf("Added %d mods to %s", len(args)-1, args[0])))
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove [name] [uniqueID]",
	Short: "Remove a mod from a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := settle(cmd.OutOrStdout(), a.mgr.RemoveModFromProfile(cmd.Context(), args[0], args[1])); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Render(fmt.Sprintf("Removed %s from %s", args[1], args[0])))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileCreateCmd, profileDeleteCmd, profileShowCmd, profileAddCmd, profileRemoveCmd)

	profileCreateCmd.Flags().StringVarP(&profileDescription, "description", "d", "", "free-form description")
}
