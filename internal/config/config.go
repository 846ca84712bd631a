package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cloudclass/internal/dirs"
)

// Defaults for keys that have one.
const (
	DefaultServerURL    = "http://localhost:5000"
	DefaultPollInterval = "2s"
)

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	// Ensure base directories exist
	_ = dirs.EnsureAll()

	// Setup config search path
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: CLOUDCLASS_*
	viper.SetEnvPrefix("CLOUDCLASS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server_url", DefaultServerURL)
	viper.SetDefault("poll_interval", DefaultPollInterval)

	// Bind root persistent flags to Viper keys
	_ = viper.BindPFlag("server_url", root.PersistentFlags().Lookup("server-url"))
	_ = viper.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("poll_interval", root.PersistentFlags().Lookup("poll-interval"))
	_ = viper.BindPFlag("simulate", root.PersistentFlags().Lookup("simulate"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}
