package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/datefmt/pkg/locale"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	localeDir     string
	defaultLocale string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "datefmt",
		Short:         "Locale and time-zone aware date formatting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.localeDir, "locale-dir", "", "directory with extra locale files")
	root.PersistentFlags().StringVar(&g.defaultLocale, "default-locale", locale.DefaultLocale, "locale used when none of the requested ones is supported")

	root.AddCommand(
		newFormatCmd(g),
		newLocalesCmd(g),
		newServeCmd(),
	)
	return root
}

func (g *globalFlags) database() (*locale.Database, error) {
	opts := []locale.Option{locale.WithDefaultLocale(g.defaultLocale)}
	if g.localeDir != "" {
		opts = append(opts, locale.WithDir(os.DirFS(g.localeDir)))
	}
	return locale.New(opts...)
}

func newLocalesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List supported locales, default first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := g.database()
			if err != nil {
				return err
			}
			for _, tag := range db.Locales() {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}
}
