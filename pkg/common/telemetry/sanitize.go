package telemetry

import (
	"strings"
)

// SanitizeLabels returns a copy of labels whose names and values only contain
// ASCII letters, digits and single underscores.
func SanitizeLabels(labels []Label) []Label {
	sanitized := make([]Label, 0, len(labels))
	for _, label := range labels {
		sanitized = append(sanitized, getSanitizedLabel(label.Name, label.Value))
	}
	return sanitized
}

func getSanitizedLabel(name, val string) Label {
	return Label{
		Name:  sanitizeLabel(name),
		Value: sanitizeLabel(val),
	}
}

// sanitizeLabel replaces every run of other characters, underscores
// included, with one underscore.
func sanitizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	replaced := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			replaced = false
		case !replaced:
			b.WriteByte('_')
			replaced = true
		}
	}
	return b.String()
}
