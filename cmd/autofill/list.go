package main

import (
	"fmt"
	"strconv"

	"github.com/koizuka/autofill"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported AI chat web apps",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTable("id", "name", "url", "attach", "hydration", "polls", "sends")
		for _, p := range autofill.Providers() {
			profile, err := cfg.ProfileFor(p)
			if err != nil {
				return err
			}
			t.Row(
				string(p),
				profile.Name,
				profile.URL,
				yesNo(profile.AttachText),
				profile.Timings.InitialDelay.String(),
				fmt.Sprintf("%d x %v", profile.Timings.MaxPolls, profile.Timings.PollInterval),
				strconv.Itoa(profile.Timings.MaxSends),
			)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the prompt templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTable("id", "label", "description")
		for _, template := range autofill.PromptTemplates() {
			t.Row(template.ID, template.Label, template.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(templatesCmd)
}
