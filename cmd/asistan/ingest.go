package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesvikportal/asistan/config"
	"github.com/tesvikportal/asistan/internal/ingest"
	"github.com/tesvikportal/asistan/internal/store"
	"github.com/tesvikportal/asistan/provider"
)

func ingestCMD() *cobra.Command {
	var corpusPath string
	var cfgPath string

	var cmd = &cobra.Command{
		Use:   "ingest",
		Short: "Embed a Q&A corpus file and load it into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if corpusPath == "" {
				return fmt.Errorf("--file is required")
			}
			cfg := config.LoadConfig(cfgPath)
			if err := cfg.Databases.Postgres.Validate(); err != nil {
				return err
			}

			entries, err := ingest.LoadFile(corpusPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			st, err := store.NewWithDSN(ctx, cfg.Databases.Postgres.DSN())
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer st.DB.Close()

			prov, err := provider.NewProvider(provider.OpenAI, cfg.Providers.OpenAI)
			if err != nil {
				return err
			}
			n, err := ingest.New(st, prov).Run(ctx, entries)
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d entries from %s\n", n, corpusPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&corpusPath, "file", "f", "", "corpus JSON file")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
