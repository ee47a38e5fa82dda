// cmd/nutripal/users.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nutripal/internal/config"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account with its meal count",
	Args:  cobra.NoArgs,
	RunE:  listUsers,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete an account and all of its meal logs",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteUser,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show account and meal totals",
	Args:  cobra.NoArgs,
	RunE:  showStats,
}

func init() {
	usersCmd.AddCommand(usersListCmd, usersDeleteCmd)
}

func listUsers(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := openApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint: errcheck

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tGOAL\tMEALS\tJOINED")
	for _, u := range a.Users() {
		email := u.Email
		if u.Admin {
			email += " (admin)"
		}
		joined := "-"
		if !u.CreatedAt.IsZero() {
			joined = humanize.Time(u.CreatedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", email, u.Name, u.Goal, humanize.Comma(int64(u.Meals)), joined)
	}
	return w.Flush()
}

func deleteUser(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := openApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint: errcheck

	removed, err := a.DeleteAccount(args[0])
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s and %s meal logs\n", args[0], humanize.Comma(int64(removed)))
	return nil
}

func showStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := openApp(cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint: errcheck

	stats := a.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "NutriPal Statistics:")
	fmt.Fprintf(out, "Total Users: %s\n", humanize.Comma(int64(stats.TotalUsers)))
	fmt.Fprintf(out, "Total Meals Logged: %s\n", humanize.Comma(int64(stats.TotalMeals)))
	return nil
}
