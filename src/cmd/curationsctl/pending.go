package main

import (
	"fmt"

	"curationsapi/src/helper/env"
	"curationsapi/src/infra/sheets"
	"curationsapi/src/repositories"
	"curationsapi/src/services/ledger"

	"github.com/spf13/cobra"
)

func newPendingCommand() *cobra.Command {
	var fromLedger bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List corrections that are not live yet",
		Long: `Prints one line per pending correction.

By default the keys come from the curations table as "entity_id|property".
With --ledger the legacy spreadsheet is read instead and the submitter email
of each open row is printed.`,
		Example: `  curationsctl pending
  curationsctl pending --ledger`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				keys []string
				err  error
			)

			if fromLedger {
				keys, err = ledgerPending(cmd)
			} else {
				keys, err = databasePending(cmd)
			}
			if err != nil {
				return err
			}

			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromLedger, "ledger", false, "read the legacy spreadsheet ledger instead of the database")

	return cmd
}

func databasePending(cmd *cobra.Command) ([]string, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := repositories.NewCurationRepository(db.GetReadPool(), db.GetWritePool())
	return repo.PendingSummary(cmd.Context())
}

func ledgerPending(cmd *cobra.Command) ([]string, error) {
	credentials := env.GetString("SHEETS_CREDENTIALS_FILE")
	spreadsheetID := env.GetString("SHEETS_SPREADSHEET_ID")
	if credentials == "" || spreadsheetID == "" {
		return nil, fmt.Errorf("SHEETS_CREDENTIALS_FILE and SHEETS_SPREADSHEET_ID must be set to read the ledger")
	}

	client, err := sheets.NewClient(cmd.Context(), credentials, spreadsheetID, env.GetString("SHEETS_RANGE", "Sheet1!A:H"))
	if err != nil {
		return nil, err
	}

	return ledger.NewService(newLogger(), client).Pending(cmd.Context())
}
