package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultFormat = ""
	JSONFormat    = "JSON"
	TextFormat    = "TEXT"
)

// An Option can change the Logger to apply desired configuration in NewLogger
type Option func(*Logger) error

// WithOutputFile appends to file, which logrotate can only rotate with the
// lossy copytruncate directive. The agent uses WithReopenableOutputFile.
func WithOutputFile(file string) Option {
	return func(logger *Logger) error {
		if file == "" {
			return nil
		}
		f, err := os.OpenFile(file, logFileFlags, logFileMode)
		if err != nil {
			return err
		}
		return logger.replaceOutput(f)
	}
}

// WithReopenableOutputFile logs to reopenableFile, which ReopenOnSignal
// reopens after logrotate moved it.
func WithReopenableOutputFile(reopenableFile *ReopenableFile) Option {
	return func(logger *Logger) error {
		return logger.replaceOutput(reopenableFile)
	}
}

// replaceOutput closes the output a previous option installed.
func (l *Logger) replaceOutput(w io.WriteCloser) error {
	if l.Closer != nil {
		if err := l.Closer.Close(); err != nil {
			return err
		}
	}
	l.SetOutput(w)
	l.Closer = w
	return nil
}

// WithFormat selects the entry format by name, ignoring case. The empty
// format keeps the logrus default.
func WithFormat(format string) Option {
	return func(logger *Logger) error {
		newFormatter, ok := formatters[strings.ToUpper(format)]
		if !ok {
			return fmt.Errorf("unknown logger format: %q", format)
		}
		if newFormatter != nil {
			logger.Formatter = newFormatter()
		}
		return nil
	}
}

var formatters = map[string]func() logrus.Formatter{
	DefaultFormat: nil,
	JSONFormat: func() logrus.Formatter {
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	},
	TextFormat: func() logrus.Formatter {
		return &logrus.TextFormatter{TimestampFormat: time.RFC3339Nano}
	},
}

func WithLevel(logLevel string) Option {
	return func(logger *Logger) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	}
}

// WithSourceLocation adds the file, line and function of the caller to each
// entry. logger.SetReportCaller is not used because it reports frames inside
// this package when logging goes through a wrapper.
func WithSourceLocation() Option {
	return func(logger *Logger) error {
		logger.AddHook(sourceLocHook{})
		return nil
	}
}

type sourceLocHook struct{}

func (sourceLocHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (sourceLocHook) Fire(e *logrus.Entry) error {
	frame := getCaller()
	if frame != nil {
		e.Data[logrus.FieldKeyFile] = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		e.Data[logrus.FieldKeyFunc] = frame.Function
	}
	return nil
}

func getCaller() *runtime.Frame {
	pcs := make([]uintptr, 10)
	skip := 3 // skip 'runtime.Callers', this function, and its caller
	numPcs := runtime.Callers(skip, pcs)
	if numPcs == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:numPcs])

	for {
		f, more := frames.Next()

		// skip over frames within the logging infrastructure
		if !isLoggingFunc(f.Function) {
			return &f
		}

		if !more {
			break
		}
	}

	return nil
}

var loggingFuncRegexp = regexp.MustCompile(
	`^github\.com/(?:sirupsen/logrus|spiffe/peercred/pkg/common/log)[./]`)

func isLoggingFunc(funcName string) bool {
	return loggingFuncRegexp.MatchString(funcName) &&
		!strings.HasPrefix(funcName, "github.com/spiffe/peercred/pkg/common/log.Test")
}
