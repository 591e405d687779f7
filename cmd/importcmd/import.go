// Package importcmd handles the statement import command
package importcmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibikovilya/prior-import/cmd/root"
	"github.com/bibikovilya/prior-import/internal/importer"
	"github.com/bibikovilya/prior-import/internal/store"
)

var (
	dbPath  string
	account string
	dryRun  bool
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a statement export into the ledger database",
	Long: `Parse a Priorbank statement export, skip rows already imported, and
write the resulting transactions and cash-withdrawal transfers to the ledger
database in one atomic batch.`,
	Run: importFunc,
}

func importFunc(cmd *cobra.Command, args []string) {
	log := root.Log
	logger := root.GetLogger()

	input := root.SharedFlags.Input
	if input == "" {
		log.Fatal("Input statement file is required (-i)")
	}

	format, err := root.ResolveFormat()
	if err != nil {
		log.Fatalf("Error resolving statement format: %v", err)
	}

	path := dbPath
	if path == "" && root.Cfg != nil {
		path = root.Cfg.Database.Path
	}

	st, err := store.New(path, logger)
	if err != nil {
		log.Fatalf("Error opening ledger database: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warnf("Failed to close ledger database: %v", err)
		}
	}()

	file, err := os.Open(input) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		log.Fatalf("Error opening statement file: %v", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("Failed to close statement file: %v", err)
		}
	}()

	imp := importer.New(st, st, logger)
	opts := importer.Options{
		Format:             format,
		PinnedAccountLabel: account,
		SourceName:         input,
	}

	ctx := context.Background()
	var report *importer.Report
	if dryRun {
		report, err = imp.Run(ctx, file, opts)
	} else {
		report, err = imp.RunAndPersist(ctx, file, opts, st)
	}
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	// A row/line count discrepancy is the user's signal that some lines were
	// skipped; per-row problems never fail the import.
	log.Infof("Import %s: %d rows, %d imported, %d duplicates, %d rejected",
		report.ImportID, report.Rows, report.Accepted, report.Duplicates, len(report.Rejections))
	for _, rej := range report.Rejections {
		log.Debugf("Rejected row: %s", rej.String())
	}
	log.Infof("Totals: inflow %s, outflow %s", report.Inflow.String(), report.Outflow.String())
	if dryRun {
		log.Info("Dry run: nothing was written to the database")
	}
}

func init() {
	Cmd.Flags().StringVar(&dbPath, "db", "", "Ledger database path (default from config)")
	Cmd.Flags().StringVarP(&account, "account", "a", "", "Pin the whole import to one account")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and report without writing to the database")
}
