package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdubravic83/POtranslate/internal/translation"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "Lists the supported target languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := translation.Languages()
			for _, tag := range translation.LanguageTags() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", tag, langs[tag])
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}
