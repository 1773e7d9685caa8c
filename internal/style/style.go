// Package style applies accent palettes to a style context: a set of named
// CSS custom properties.
package style

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jmylchreest/accent/internal/colour"
)

// Variables names the custom properties that receive the palette. Aliases
// receive the primary colour.
type Variables struct {
	Primary      string   `toml:"primary"`
	Secondary    string   `toml:"secondary"`
	PrimaryAlias []string `toml:"primary_aliases"`
}

// DefaultVariables returns the property names used by the page stylesheet.
func DefaultVariables() Variables {
	return Variables{
		Primary:      "--primary-color",
		Secondary:    "--secondary-color",
		PrimaryAlias: []string{"--accent-neon", "--accent-green"},
	}
}

// Validate checks that every name is a CSS custom property.
func (v Variables) Validate() error {
	names := append([]string{v.Primary, v.Secondary}, v.PrimaryAlias...)
	for _, name := range names {
		if !strings.HasPrefix(name, "--") || len(name) < 3 {
			return fmt.Errorf("invalid custom property name %q (must start with --)", name)
		}
		if strings.ContainsAny(name, " \t\n:;{}") {
			return fmt.Errorf("invalid custom property name %q", name)
		}
	}
	return nil
}

// Assignments returns the ordered property/value pairs for a palette.
func (v Variables) Assignments(p colour.Palette) []Property {
	props := []Property{
		{Name: v.Primary, Value: p.Primary},
		{Name: v.Secondary, Value: p.Secondary},
	}
	for _, alias := range v.PrimaryAlias {
		props = append(props, Property{Name: alias, Value: p.Primary})
	}
	return props
}

// Property is a single custom property assignment.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Context is the active style context.
type Context interface {
	SetProperty(name, value string) error
}

// Committer is implemented by contexts that buffer writes.
type Committer interface {
	Commit() error
}

// Apply writes the palette into ctx. Incomplete palettes are refused so a
// failed extraction never blanks out previously applied colours.
func Apply(ctx Context, vars Variables, p colour.Palette) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("refusing to apply palette: %w", err)
	}

	for _, prop := range vars.Assignments(p) {
		if err := ctx.SetProperty(prop.Name, prop.Value); err != nil {
			return fmt.Errorf("failed to set %s: %w", prop.Name, err)
		}
	}

	if c, ok := ctx.(Committer); ok {
		if err := c.Commit(); err != nil {
			return fmt.Errorf("failed to commit style context: %w", err)
		}
	}
	return nil
}

// Memory is an in-memory Context, safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	props map[string]string
}

// NewMemory creates an empty in-memory context.
func NewMemory() *Memory {
	return &Memory{props: make(map[string]string)}
}

// SetProperty implements Context.
func (m *Memory) SetProperty(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.props[name] = value
	return nil
}

// Get returns the value of a property.
func (m *Memory) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.props[name]
	return v, ok
}

// Properties returns all properties sorted by name.
func (m *Memory) Properties() []Property {
	m.mu.RLock()
	defer m.mu.RUnlock()

	props := make([]Property, 0, len(m.props))
	for name, value := range m.props {
		props = append(props, Property{Name: name, Value: value})
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	return props
}
