package logutils

import (
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

// Flags holds the logging flags shared by all commands.
type Flags struct {
	LogLevel  string `arg:"--log-level,env:LOG_LEVEL" default:"info" help:"Log level (trace, debug, info, warn, error)"`
	LogFormat string `arg:"--log-format,env:LOG_FORMAT" default:"text" help:"Log format (text or json)"`
}

func (a *Flags) Setup() {
	SetLoggerLevel(a.LogLevel)
	SetLoggerFormat(a.LogFormat)
}

func SetLoggerLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

func SetLoggerFormat(format string) {
	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
