// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bibikovilya/prior-import/internal/config"
	"github.com/bibikovilya/prior-import/internal/logging"
)

// CommonFlags represents the flags shared by the import and export commands
type CommonFlags struct {
	Input   string
	Output  string
	Format  string
	Formats string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded application configuration
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "prior-import",
		Short: "Import Priorbank card-statement exports into a ledger.",
		Long: `prior-import parses Priorbank statement exports (the multi-section
CSV-like dump the bank produces), normalizes the transactions and imports
them into a local ledger database, detecting cash withdrawals and skipping
rows already imported.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to prior-import!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
			Log = config.ConfigureLogging()

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Error loading configuration: %v", err)
			}
			Cfg = cfg
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all persistent flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input statement file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Format, "format", "", "Statement format name (default from config)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Formats, "formats-file", "", "YAML file with additional statement formats")
}

// GetLogger returns the shared logger wrapped in the logging abstraction.
func GetLogger() logging.Logger {
	return logging.NewLogrusAdapterFromLogger(Log)
}

// ResolveFormat loads the statement formats and picks the requested one.
func ResolveFormat() (cfgFormat config.StatementFormat, err error) {
	name := SharedFlags.Format
	formatsFile := SharedFlags.Formats
	if Cfg != nil {
		if name == "" {
			name = Cfg.Import.Format
		}
		if formatsFile == "" {
			formatsFile = Cfg.Import.FormatsFile
		}
	}
	if name == "" {
		name = "prior"
	}

	formats, err := config.LoadFormats(formatsFile)
	if err != nil {
		return config.StatementFormat{}, err
	}
	format, ok := formats[name]
	if !ok {
		return config.StatementFormat{}, &unknownFormatError{name: name}
	}
	return format, nil
}

type unknownFormatError struct {
	name string
}

func (e *unknownFormatError) Error() string {
	return "unknown statement format: " + e.name
}
