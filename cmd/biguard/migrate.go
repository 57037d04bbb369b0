package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biguard/biguard/internal/cli"
	"github.com/biguard/biguard/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Database schema is at version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}
}
