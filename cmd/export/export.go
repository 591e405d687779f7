// Package export handles the normalized-rows preview command
package export

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bibikovilya/prior-import/cmd/root"
	"github.com/bibikovilya/prior-import/internal/common"
	"github.com/bibikovilya/prior-import/internal/priorparser"
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export normalized statement rows to CSV",
	Long: `Parse a Priorbank statement export and write the normalized rows to a
flat CSV file without touching the ledger database. Useful for previewing
what an import would pick up.`,
	Run: exportFunc,
}

func exportFunc(cmd *cobra.Command, args []string) {
	log := root.Log
	logger := root.GetLogger()

	input := root.SharedFlags.Input
	output := root.SharedFlags.Output
	if input == "" || output == "" {
		log.Fatal("Input (-i) and output (-o) files are required")
	}

	format, err := root.ResolveFormat()
	if err != nil {
		log.Fatalf("Error resolving statement format: %v", err)
	}

	if root.Cfg != nil && root.Cfg.Export.Delimiter != "" {
		common.SetDelimiter([]rune(root.Cfg.Export.Delimiter)[0])
	}

	file, err := os.Open(input) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		log.Fatalf("Error opening statement file: %v", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("Failed to close statement file: %v", err)
		}
	}()

	results, err := priorparser.New(format, logger).Parse(file)
	if err != nil {
		log.Fatalf("Error parsing statement: %v", err)
	}

	rows := common.BuildExportRows(results, format)
	if err := common.WriteRowsToCSV(rows, output, logger); err != nil {
		log.Fatalf("Error writing CSV: %v", err)
	}

	log.Infof("Exported %d rows to %s (%d candidate lines)", len(rows), output, len(results))
}
