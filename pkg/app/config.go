package app

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlagName = "config"

// ConfigChangeFunc is invoked with the reloaded configuration after the config file changed.
type ConfigChangeFunc func(v *viper.Viper)

func addConfigFlag(basename string, fs *pflag.FlagSet) *string {
	return fs.StringP(configFlagName, "c", "", fmt.Sprintf("Read configuration from the specified file; flags override it. Environment variables use the %s_ prefix.", envPrefix(basename)))
}

func envPrefix(basename string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(basename))
}

// loadConfig merges the config file, the environment and explicitly set flags
// into opts. Flags win over the environment, which wins over the file.
func loadConfig(v *viper.Viper, basename, file string, fs *pflag.FlagSet, opts any) error {
	v.SetEnvPrefix(envPrefix(basename))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file %s: %w", file, err)
		}
	}

	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// watchConfig calls fn whenever the config file is written.
func watchConfig(v *viper.Viper, fn ConfigChangeFunc) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(v)
	})
	v.WatchConfig()
}
