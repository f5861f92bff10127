package formatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContent struct{ err error }

func (f fakeContent) ToHTML() (string, error)     { return "<p>html</p>", f.err }
func (f fakeContent) ToText() (string, error)     { return "text", f.err }
func (f fakeContent) ToMarkdown() (string, error) { return "# md", f.err }
func (f fakeContent) ToJSON() ([]byte, error)     { return []byte(`{"ok":true}`), f.err }
func (f fakeContent) ToCSV() (string, error)      { return "a,b\n", f.err }

func TestFormat(t *testing.T) {
	want := map[string]string{
		"html":     "<p>html</p>",
		"text":     "text",
		"markdown": "# md",
		"json":     `{"ok":true}`,
		"csv":      "a,b\n",
	}
	for _, f := range Formats {
		got, err := Format(fakeContent{}, f)
		require.NoError(t, err, f)
		assert.Equal(t, want[f], got, f)
	}
}

func TestFormatErrors(t *testing.T) {
	_, err := Format(fakeContent{}, "xml")
	assert.EqualError(t, err, "unsupported output format: xml")

	boom := errors.New("boom")
	_, err = Format(fakeContent{err: boom}, "json")
	assert.ErrorIs(t, err, boom)
}

func TestInferFromExtension(t *testing.T) {
	tests := map[string]string{
		"out.md":       "markdown",
		"OUT.MARKDOWN": "markdown",
		"rows.csv":     "csv",
		"dump.json":    "json",
		"page.htm":     "html",
		"notes.txt":    "text",
		"archive.zip":  "",
		"noext":        "",
	}
	for name, want := range tests {
		assert.Equal(t, want, InferFromExtension(name), name)
	}
	assert.True(t, Valid("csv"))
	assert.False(t, Valid("yaml"))
}
