package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/qrsp/sticker-alias/internal/models"
)

var (
	userName  string
	userAdmin bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the users allowed to talk to the bot",
}

var userAddCmd = &cobra.Command{
	Use:   "add <telegram-user-id>",
	Short: "Register a user, or update an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.UpsertUser(cmd.Context(), models.User{ID: id, Name: userName, Admin: userAdmin}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %d saved\n", id)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE")
		for _, u := range users {
			role := "user"
			if u.Admin {
				role = "admin"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Name, role)
		}
		return w.Flush()
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "nickname shown in listings")
	userAddCmd.Flags().BoolVar(&userAdmin, "admin", false, "receive system notices and admin commands")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}
