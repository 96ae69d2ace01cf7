package log

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LocalTimeHook converts time.Time fields, and pointers to them, to local time.
type LocalTimeHook struct{}

func (LocalTimeHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (LocalTimeHook) Fire(entry *logrus.Entry) error {
	for k, v := range entry.Data {
		switch t := v.(type) {
		case time.Time:
			entry.Data[k] = t.Local()
		case *time.Time:
			if t != nil {
				local := t.Local()
				entry.Data[k] = &local
			}
		}
	}
	return nil
}
