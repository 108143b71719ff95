package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Library packages log through the same
// logrus standard logger so that level changes apply everywhere.
var Logger = logrus.StandardLogger()

var logger = Logger

var verbose bool

// SetVerbose switches to debug level, configured levels no longer apply.
func SetVerbose() {
	verbose = true
	Logger.SetLevel(logrus.DebugLevel)
}

// ConfigureLogging applies a level name ("info", "debug", ...) and a format,
// "text" or "json".
func ConfigureLogging(level, format string) error {
	if level != "" && !verbose {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		Logger.SetLevel(lvl)
	}
	switch format {
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
