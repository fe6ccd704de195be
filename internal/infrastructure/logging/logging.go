package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the process-wide logrus logger. Production gets JSON,
// everything else the text formatter with full timestamps.
func Setup(level string, prod bool) {
	if prod {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
