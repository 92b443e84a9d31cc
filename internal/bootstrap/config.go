package bootstrap

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr string `mapstructure:"SERVER_ADDR"`
	ModelDir   string `mapstructure:"MODEL_DIR"`
	ProfileDir string `mapstructure:"PROFILE_DIR"`
	LogFile    string `mapstructure:"LOG_FILE"`
	FrameRate  int    `mapstructure:"FRAME_RATE"`
}

// Setup reads the configuration file at cfgPath, falling back to environment
// variables and defaults when the file is absent.
func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_ADDR", "localhost:5410")
	viper.SetDefault("MODEL_DIR", ".")
	viper.SetDefault("PROFILE_DIR", "profiles")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("FRAME_RATE", 30)

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env is fine; defaults and the environment apply.
		if !os.IsNotExist(err) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
