package form

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Preview renders the model's value as indented JSON.
func Preview(m *Model) (string, error) {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewHTMLIDPrefix returns a prefix for HTMLIDPrefix that keeps element ids
// of several forms on one page apart.
func NewHTMLIDPrefix() string {
	return "xf-" + uuid.NewString()[:8] + "-"
}
