// Package render turns a recent-updates view into its published forms.
package render

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/starford/recently/internal/recent"
)

//go:embed recent.html
var defaultTemplate string

// entryTemplate is the template executed by HTML. Custom files must define it.
const entryTemplate = "recent"

// Renderer writes views as an HTML fragment.
type Renderer struct {
	tpl *template.Template
}

// New returns a Renderer. An empty path selects the built-in fragment;
// otherwise the file at path is parsed and must define a "recent" template.
func New(path string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"truncate": recent.Truncate,
	}
	tpl := template.New("recently").Funcs(funcMap)
	var err error
	if path == "" {
		tpl, err = tpl.Parse(defaultTemplate)
	} else {
		var src []byte
		src, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("render: read template %s: %w", filepath.Base(path), err)
		}
		tpl, err = tpl.Parse(string(src))
	}
	if err != nil {
		return nil, fmt.Errorf("render: parse template: %w", err)
	}
	if tpl.Lookup(entryTemplate) == nil {
		return nil, fmt.Errorf("render: template %q not defined", entryTemplate)
	}
	return &Renderer{tpl: tpl}, nil
}

// HTML writes the fragment for v to w.
func (r *Renderer) HTML(w io.Writer, v recent.View) error {
	if err := r.tpl.ExecuteTemplate(w, entryTemplate, v); err != nil {
		return fmt.Errorf("render: execute: %w", err)
	}
	return nil
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v recent.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("render: encode json: %w", err)
	}
	return nil
}
