package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration loaded hierarchically:
// defaults, then an optional config file, then PRIOR_* environment variables.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Import struct {
		Format      string `mapstructure:"format" yaml:"format"`
		FormatsFile string `mapstructure:"formats_file" yaml:"formats_file"`
	} `mapstructure:"import" yaml:"import"`

	Export struct {
		Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
		DateFormat string `mapstructure:"date_format" yaml:"date_format"`
	} `mapstructure:"export" yaml:"export"`
}

// InitializeConfig loads the configuration with viper.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.prior-import")
	v.AddConfigPath(".prior-import")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRIOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A broken config file should not stop the import; defaults and
			// env vars still apply.
			Logger.Warnf("error reading config file %s: %v", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.path", "ledger.db")
	v.SetDefault("import.format", "prior")
	v.SetDefault("import.formats_file", "")
	v.SetDefault("export.delimiter", ",")
	v.SetDefault("export.date_format", "02.01.2006")
}
