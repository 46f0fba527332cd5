package logging

import (
	"io"
	"os"
	"strings"

	"github.com/empowerfit/backend/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 50
	logFileMaxBackups = 20
	logFileMaxAgeDays = 180
)

// sentryLevels are forwarded to sentry when it is enabled.
var sentryLevels = []logrus.Level{
	logrus.PanicLevel,
	logrus.FatalLevel,
	logrus.ErrorLevel,
}

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger used across the service.
func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.SentryEnabled {
		setupSentry(params)
	}

	out, desc := NewOutput(params.LogFileName, params.LogToStdout)
	logrus.SetOutput(out)
	logrus.Infof("writing logs to %s", desc)
}

func setupSentry(params LoggerSetupParams) {
	if err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	}); err != nil {
		// keep logging locally, the hook is a no-op without a client
		logrus.Errorf("init sentry: %s", err)
	}

	logrus.AddHook(NewSentryHook(sentryLevels))
	logrus.Infof("sentry set up for [%s]", params.SentryServerName)
}

// NewOutput picks the log destination: stdout when no file is set, otherwise a
// rotating file, optionally mirrored to stdout. The returned string describes it.
func NewOutput(fileName string, alsoStdout bool) (io.Writer, string) {
	if fileName == "" {
		return os.Stdout, "stdout"
	}

	file := newRotatingFile(fileName)
	if alsoStdout {
		return pkg.NewCombinedWriter(os.Stdout, file), file.Filename + " and stdout"
	}
	return file, file.Filename
}

func newRotatingFile(fileName string) *lumberjack.Logger {
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}
	return &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
		Compress:   true,
	}
}

// GetLevel accepts any logrus level name ("warning" and "warn" both work).
// Unknown or empty names fall back to trace.
func GetLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.TraceLevel
	}
	return lvl
}
