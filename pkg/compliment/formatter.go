package compliment

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

// DefaultLineTemplate renders each compliment as a bullet line.
const DefaultLineTemplate = "- {{.Text}}"

// Formatter renders compliments one line each. It is safe for concurrent use.
type Formatter struct {
	tmpl *template.Template
}

// NewFormatter parses a line template. The template is executed once per
// compliment with a Compliment as its data, and may use the upper, lower and
// pad functions.
func NewFormatter(line string) (*Formatter, error) {
	if line == "" {
		line = DefaultLineTemplate
	}
	tmpl, err := template.New("line").Funcs(funcMap).Parse(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse line template: %w", err)
	}
	return &Formatter{tmpl: tmpl}, nil
}

var funcMap = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"pad": func(width, n int) string {
		return fmt.Sprintf("%*d", width, n)
	},
}

// Line renders a single compliment.
func (f *Formatter) Line(c Compliment) (string, error) {
	var sb strings.Builder
	if err := f.tmpl.Execute(&sb, c); err != nil {
		return "", fmt.Errorf("failed to render compliment %d: %w", c.Number, err)
	}
	return sb.String(), nil
}

// Render writes the compliments to w, joined by newlines.
func (f *Formatter) Render(w io.Writer, cs []Compliment) error {
	text, err := f.String(cs)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// String renders the compliments joined by newlines.
func (f *Formatter) String(cs []Compliment) (string, error) {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		line, err := f.Line(c)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}
