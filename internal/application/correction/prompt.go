package correction

import (
	"bytes"
	"text/template"
	"time"
)

// dateLayout renders the current date as YYYY-MM-DD inside the instruct prompt.
const dateLayout = "2006-01-02"

const fixTemplate = `Fix all typos and casing and punctuation in this text, but preserve all new line characters:

{{.Text}}

Return only the corrected text, don't include a preamble.
`

const instructTemplate = `You are AI assistant, a large language model trained by human, based on the AI architecture.
Knowledge cutoff: 2023-04
Current date: {{.Date}}
The request :

{{.Text}}
`

// Templates holds the two immutable prompt templates.
type Templates struct {
	fix      *template.Template
	instruct *template.Template
}

type promptData struct {
	Text string
	Date string
}

// DefaultTemplates parses the built-in fix and instruct templates.
func DefaultTemplates() Templates {
	return Templates{
		fix:      template.Must(template.New("fix").Parse(fixTemplate)),
		instruct: template.Must(template.New("instruct").Parse(instructTemplate)),
	}
}

// RenderFix builds the fix prompt. The captured text is inserted byte-for-byte.
func (t Templates) RenderFix(text string) (string, error) {
	return execute(t.fix, promptData{Text: text})
}

// RenderInstruct builds the instruct prompt for the given day.
func (t Templates) RenderInstruct(text string, day time.Time) (string, error) {
	return execute(t.instruct, promptData{Text: text, Date: day.Format(dateLayout)})
}

func execute(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
