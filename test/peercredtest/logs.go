package peercredtest

import (
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type LogEntry struct {
	Level   logrus.Level
	Message string
	Data    logrus.Fields
}

// AssertLogs compares entries with expected. Field values are compared by
// their fmt.Sprint rendering. Entries without fields match a nil Data.
func AssertLogs(t *testing.T, entries []*logrus.Entry, expected []LogEntry) {
	t.Helper()
	assert.Equal(t, expected, convertLogEntries(entries), "unexpected logs")
}

func convertLogEntries(entries []*logrus.Entry) (out []LogEntry) {
	for _, entry := range entries {
		var data logrus.Fields
		if len(entry.Data) > 0 {
			data = logrus.Fields{}
		}
		for key, field := range entry.Data {
			data[key] = fmt.Sprint(field)
		}
		out = append(out, LogEntry{
			Level:   entry.Level,
			Message: entry.Message,
			Data:    data,
		})
	}
	return out
}
