package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/transcript.md.tmpl
var transcriptMarkdownTemplate string

var transcriptTemplate = template.Must(template.New("transcript").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"indent": func(prefix string, text string) string {
		prefixed := strings.Builder{}
		for line := range strings.Lines(text) {
			prefixed.WriteString(prefix)
			prefixed.WriteString(line)
		}
		return prefixed.String()
	},
}).Parse(transcriptMarkdownTemplate))

type transcriptMarkdownData struct {
	ExportedAt string
	Turns      []Turn
}

// ToMarkdown renders the transcript as a Markdown document for download
func (tr Transcript) ToMarkdown(exportedAt time.Time) (string, error) {
	data := transcriptMarkdownData{
		ExportedAt: exportedAt.Format("2006-01-02 15:04:05 MST"),
		Turns:      tr.Turns(),
	}

	var buf bytes.Buffer
	if err := transcriptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute transcript template: %w", err)
	}
	return buf.String(), nil
}
