package style

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/jmylchreest/accent/internal/version"
)

//go:embed stylesheet.css.tmpl
var stylesheetTemplate string

// DefaultSelector is the rule the properties are declared on.
const DefaultSelector = ":root"

// Stylesheet is a Context that renders its properties to a CSS file.
// Properties accumulate in memory until Commit writes the file.
type Stylesheet struct {
	path     string
	selector string
	mem      *Memory
	order    []string
}

// NewStylesheet creates a stylesheet context writing to path.
func NewStylesheet(path, selector string) *Stylesheet {
	if selector == "" {
		selector = DefaultSelector
	}
	return &Stylesheet{
		path:     path,
		selector: selector,
		mem:      NewMemory(),
	}
}

// Path returns the output file path.
func (s *Stylesheet) Path() string {
	return s.path
}

// SetProperty implements Context.
func (s *Stylesheet) SetProperty(name, value string) error {
	if _, ok := s.mem.Get(name); !ok {
		s.order = append(s.order, name)
	}
	return s.mem.SetProperty(name, value)
}

// Render returns the stylesheet contents.
func (s *Stylesheet) Render() ([]byte, error) {
	tmpl, err := template.New("stylesheet").Parse(stylesheetTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stylesheet template: %w", err)
	}

	props := make([]Property, 0, len(s.order))
	for _, name := range s.order {
		value, _ := s.mem.Get(name)
		props = append(props, Property{Name: name, Value: value})
	}

	data := struct {
		Version    string
		Selector   string
		Properties []Property
	}{
		Version:    version.Short(),
		Selector:   s.selector,
		Properties: props,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute stylesheet template: %w", err)
	}
	return buf.Bytes(), nil
}

// Commit implements Committer: it writes the file atomically.
func (s *Stylesheet) Commit() error {
	content, err := s.Render()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Stylesheets are served to browsers
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".accent-*.css")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { // #nosec G302 - Stylesheets are served to browsers
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to set stylesheet permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace stylesheet: %w", err)
	}
	return nil
}
