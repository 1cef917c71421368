// Package config loads layered service configuration: defaults, then a YAML
// file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config exposes loaded settings.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string
	GetAll() map[string]interface{}
	// Unmarshal decodes every setting into out using mapstructure tags.
	Unmarshal(out interface{}) error
	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile() string
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string        { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int              { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool            { return c.v.GetBool(key) }
func (c *viperConfig) GetStringSlice(key string) []string { return c.v.GetStringSlice(key) }
func (c *viperConfig) GetAll() map[string]interface{}     { return c.v.AllSettings() }
func (c *viperConfig) Unmarshal(out interface{}) error    { return c.v.Unmarshal(out) }
func (c *viperConfig) ConfigFile() string                 { return c.v.ConfigFileUsed() }

const configDir = "configs"

// Load reads <serviceName>.yaml from CONFIG_PATH, configs/<APP_ENV>, or
// configs/example, in that order. A missing file is not an error; defaults
// and <SERVICENAME>_* environment variables still apply. Every key that may be
// overridden from the environment must appear in defaults.
func Load(serviceName string, defaults map[string]interface{}) (Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(serviceName)
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if strings.HasSuffix(configPath, ".yaml") || strings.HasSuffix(configPath, ".yml") {
			v.SetConfigFile(configPath)
		} else {
			v.AddConfigPath(configPath)
		}
	}
	v.AddConfigPath(filepath.Join(configDir, env))
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	return &viperConfig{v: v}, nil
}
