package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"github.com/tsingjyujing/langid/config"
	"github.com/tsingjyujing/langid/utils"
)

var logger = utils.Logger

// readConfig locates config.yaml the usual way, falling back to the defaults
// when there is none. An explicit path must exist.
func readConfig(path string) (*viper.Viper, *config.Envelope) {
	viperInstance := viper.New()
	if path != "" {
		viperInstance.SetConfigFile(path)
	} else {
		viperInstance.SetConfigName("config")
		viperInstance.SetConfigType("yaml")
		viperInstance.AddConfigPath("/etc/langid/")
		viperInstance.AddConfigPath("$HOME/.langid")
		viperInstance.AddConfigPath("./config")
	}
	viperInstance.SetEnvPrefix("LANGID")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	envelope := config.Default()
	err := viperInstance.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
		logger.Info("No configuration file found, using defaults")
	case err != nil:
		logger.WithError(err).Fatal("fatal error config file")
	default:
		logger.Infof("Using config file: %s", viperInstance.ConfigFileUsed())
		envelope, err = config.LoadConfigFromFile(viperInstance.ConfigFileUsed())
		if err != nil {
			logger.WithError(err).Fatal("Failed to parse configuration")
		}
	}
	envelope.ApplyOverrides(viperInstance)
	if err := envelope.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if err := utils.ConfigureLogging(envelope.Log.Level, envelope.Log.Format); err != nil {
		logger.WithError(err).Fatal("Invalid logging configuration")
	}
	return viperInstance, envelope
}
