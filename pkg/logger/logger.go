package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log line encodings accepted by InitLogger
const (
	FormatJSON = "json"
	FormatText = "text"
)

var Logger *logrus.Logger

// InitLogger builds the process-wide logger. An empty level means debug in
// development and info elsewhere; an empty format means colored text in
// development and JSON elsewhere. Logs go to stderr so CLI results can own stdout.
func InitLogger(level, format string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(formatter(format, isDevelopment))

	if level == "" {
		level = "info"
		if isDevelopment {
			level = "debug"
		}
	}
	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(parsed)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid LOG_LEVEL, using INFO")
	}

	Logger = log
	return log
}

func formatter(format string, isDevelopment bool) logrus.Formatter {
	jsonFormatter := &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	textFormatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     isDevelopment,
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return jsonFormatter
	case FormatText:
		return textFormatter
	}
	if isDevelopment {
		return textFormatter
	}
	return jsonFormatter
}

// GetLogger returns the global logger, creating a production one on first use
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("", "", false)
	}
	return Logger
}

// SetOutput redirects the global logger, mostly for tests
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

// WithService tags entries with the running binary
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// WithComponent tags entries with the package-level component emitting them
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

// WithOptimizationContext tags entries of one multi-lineup run
func WithOptimizationContext(optimizationID, strategy, policy string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"optimization_id": optimizationID,
		"strategy":        strategy,
		"policy":          policy,
	})
}

// WithRequestContext links an API request to the run it started
func WithRequestContext(requestID, optimizationID string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"request_id":      requestID,
		"optimization_id": optimizationID,
	})
}

// WithHTTPContext creates a logger with HTTP request context
func WithHTTPContext(method, path, clientIP string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"http_method": method,
		"http_path":   path,
		"client_ip":   clientIP,
	})
}
