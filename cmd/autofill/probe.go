package main

import (
	"fmt"
	"strconv"

	"github.com/koizuka/autofill"
	"github.com/spf13/cobra"
)

var probeProvider string

var probeCmd = &cobra.Command{
	Use:   "probe <snapshot.html>",
	Short: "Run the selectors of a provider against a saved page",
	Long: `Loads a page saved after a failed fill (or any saved HTML) and shows what each
prompt and send selector matches, and which composer and send button the
automation would pick. Layout is approximated from inline styles.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, metadata, err := autofill.LoadSnapshot(args[0])
		if err != nil {
			return fmt.Errorf("failed to load %v: %w", args[0], err)
		}

		name := probeProvider
		if name == "" {
			name = string(metadata.Provider)
		}
		if name == "" {
			if p, ok := autofill.ProviderForURL(metadata.URL); ok {
				name = string(p)
			}
		}
		profile, err := providerProfile(name)
		if err != nil {
			return err
		}

		report, err := autofill.ProbeDocument(doc, profile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%v on %v", profile.Name, orUnknown(metadata.URL))))
		if metadata.Title != "" {
			fmt.Fprintln(out, dimStyle.Render(metadata.Title))
		}

		t := newTable("kind", "selector", "matches", "usable", "error")
		for _, row := range report.Selectors {
			errText := ""
			if row.Err != nil {
				errText = missStyle.Render(row.Err.Error())
			}
			t.Row(row.Kind, row.Selector, strconv.Itoa(row.Matches), strconv.Itoa(row.Usable), errText)
		}
		fmt.Fprintln(out, t.String())

		fmt.Fprintf(out, "composer: %v\n", describeState(report.Prompt))
		fmt.Fprintf(out, "send:     %v\n", describeState(report.Send))
		return nil
	},
}

func describeState(state *autofill.ElementState) string {
	if state == nil {
		return missStyle.Render("not found")
	}
	kind := state.Tag
	if state.ContentEditable && !state.IsNativeInput() {
		kind += " (contenteditable)"
	}
	return okStyle.Render(kind) + dimStyle.Render(fmt.Sprintf(" bottom=%v", state.Bottom))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown URL"
	}
	return s
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVarP(&probeProvider, "provider", "p", "", "Provider profile to probe with (default: from the snapshot)")
}
