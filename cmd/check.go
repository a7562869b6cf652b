package main

import (
	"fmt"

	"RestyAPI/internal/app"
	"RestyAPI/internal/db"
	"RestyAPI/internal/model"
	"RestyAPI/internal/query"
	"RestyAPI/internal/resource"

	"github.com/spf13/cobra"
)

var checkOffline bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate resource descriptors without serving",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		reg, err := model.LoadRegistry(cfg.DescriptorsDir)
		if err != nil {
			return err
		}

		var backend db.Backend
		if checkOffline {
			// queries are compiled but never run
			backend, err = db.OpenSQLite(":memory:")
		} else {
			backend, err = app.OpenBackend(cmd.Context(), cfg)
		}
		if err != nil {
			return err
		}
		defer backend.Close()
		if err := backend.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("backend ping: %w", err)
		}

		entries, err := resource.FromRegistry(reg, query.NewExecutor(backend))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			cached := ""
			if e.Definition.Cache != nil {
				cached = " (cached)"
			}
			fmt.Fprintf(out, "%s/%s\t%s%s\n", cfg.BasePath, e.Name, e.Definition.EffectiveKind(), cached)
		}
		fmt.Fprintf(out, "%d resources OK\n", len(entries))
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkOffline, "offline", false, "validate descriptors without connecting to the database")
	rootCmd.AddCommand(checkCmd)
}
