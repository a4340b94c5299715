package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdubravic83/POtranslate/internal/cmd/archiver"
	"github.com/mdubravic83/POtranslate/internal/cmd/fixtures"
	"github.com/mdubravic83/POtranslate/internal/cmd/serve"
	"github.com/mdubravic83/POtranslate/internal/cmd/translate"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

func NewRootCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:           "potranslate",
		Short:         "Machine translation for gettext PO catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(translate.NewCommand())
	cmd.AddCommand(newLanguagesCommand())
	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(archiver.NewCommand())
	cmd.AddCommand(fixtures.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
