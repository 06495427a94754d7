package main

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/koizuka/autofill"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show the pending upload",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		upload, err := autofill.LoadPendingUpload(cmd.Context(), store)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if upload == nil {
			fmt.Fprintln(out, dimStyle.Render("no pending upload"))
			return nil
		}
		t := newTable("provider", "title", "prompt", "text")
		t.Row(string(upload.Provider), upload.Title, runeCount(upload.Prompt), runeCount(upload.Text))
		fmt.Fprintln(out, t.String())
		return nil
	},
}

var pendingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the pending upload",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := autofill.ClearPendingUpload(cmd.Context(), store); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("cleared"))
		return nil
	},
}

func runeCount(s string) string {
	if s == "" {
		return "-"
	}
	return strconv.Itoa(utf8.RuneCountInString(s)) + " chars"
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.AddCommand(pendingClearCmd)
}
