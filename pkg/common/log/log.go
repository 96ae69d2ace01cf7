package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
	io.Closer
}

// NewLogger returns a logger writing to stdout at info level, with time fields
// rendered in local time, and then applies options in order.
func NewLogger(options ...Option) (*Logger, error) {
	logger := &Logger{
		Logger: logrus.New(),
		Closer: nopCloser{},
	}
	logger.AddHook(LocalTimeHook{})

	for _, option := range options {
		if err := option(logger); err != nil {
			return nil, err
		}
	}

	return logger, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
