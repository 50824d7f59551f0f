package deck

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2slides/internal/assets"
)

// ErrIndexRender indicates the contents index template failed.
var ErrIndexRender = errors.New("index template rendering failed")

// DefaultIndexTitle heads the contents index.
const DefaultIndexTitle = "Contents Of Slides"

// IndexName is the file name of the contents index, after the output prefix.
const IndexName = "index.html"

// Index renders the contents index.
type Index struct {
	tmpl *template.Template
}

// NewIndex parses an index template (see assets.IndexData).
func NewIndex(tmplContent string) (*Index, error) {
	tmpl, err := template.New("index").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}
	return &Index{tmpl: tmpl}, nil
}

// Render lists every input's deck. Inputs marked no-index are kept as
// HTML comments so the link is still discoverable in the source.
// Hrefs are relative to the index, which sits at prefix + IndexName.
func (ix *Index) Render(prefix string, inputs []string) (string, error) {
	_, filePrefix := filepath.Split(filepath.FromSlash(prefix))

	data := assets.IndexData{Title: DefaultIndexTitle}
	var hidden []string
	for _, in := range inputs {
		href := filePrefix + CleanLink(in) + ".html"
		if IsUnlisted(in) {
			// html/template strips comments, so they are pre-rendered.
			hidden = append(hidden, "<!-- "+html.EscapeString(href)+" -->")
			continue
		}
		data.Links = append(data.Links, href)
	}
	data.Hidden = template.HTML(strings.Join(hidden, "\n")) // #nosec G203 -- escaped above

	var buf bytes.Buffer
	if err := ix.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexRender, err)
	}
	return buf.String(), nil
}

// IndexPath is where the contents index is written for prefix.
func IndexPath(prefix string) string {
	return filepath.FromSlash(prefix + IndexName)
}
