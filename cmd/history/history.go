// Package history implements the CLI commands for inspecting and clearing
// the stored recognition history.
package history

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kuzamma/surah-recognition-go/internal/conf"
	"github.com/kuzamma/surah-recognition-go/internal/datastore"
	"github.com/kuzamma/surah-recognition-go/internal/history"
)

// Command creates the history command with its list and clear subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past recognition results",
	}

	cmd.AddCommand(listCommand(settings), clearCommand(settings))
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored recognition results, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, closeStore, err := openLedger(settings)
			if err != nil {
				return err
			}
			defer closeStore()

			entries := ledger.All()
			if len(entries) == 0 {
				fmt.Println("No recognition history")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tRESULT\tCONFIDENCE")
			for i := range entries {
				e := &entries[i]
				result := "not recognized"
				if e.Recognized {
					result = e.SurahName
				}
				fmt.Fprintf(w, "%s\t%s\t%.0f%%\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"), result, e.Confidence)
			}
			return w.Flush()
		},
	}
}

func clearCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored recognition results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, closeStore, err := openLedger(settings)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := ledger.Clear(); err != nil {
				return err
			}
			fmt.Println("History cleared")
			return nil
		},
	}
}

func openLedger(settings *conf.Settings) (*history.Ledger, func(), error) {
	var store datastore.Store
	if settings.Output.SQLite.Enabled {
		sqliteStore, err := datastore.OpenSQLite(settings.Output.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		store = sqliteStore
	} else {
		store = datastore.NewMemStore()
	}

	ledger, err := history.NewLedger(store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return ledger, func() { store.Close() }, nil
}
