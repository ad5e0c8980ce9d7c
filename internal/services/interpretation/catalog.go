// Package interpretation renders aspect matches as human-readable sentences.
package interpretation

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"AstroTransits/internal/domain/models"
)

//go:embed catalog.yaml
var builtin []byte

// Fallback is used for any triple the catalog does not know.
const Fallback = "A meaningful connection is forming."

// Entry is one catalog line as stored in YAML.
type Entry struct {
	Transiting string `yaml:"transiting" validate:"required,oneof=Sun Moon Mercury Venus Mars Jupiter Saturn Uranus Neptune Pluto"`
	Natal      string `yaml:"natal" validate:"required,oneof=Sun Moon Mercury Venus Mars Jupiter Saturn Uranus Neptune Pluto"`
	Aspect     string `yaml:"aspect" validate:"required,oneof=conjunction opposition trine square sextile"`
	Text       string `yaml:"text" validate:"required"`
}

type file struct {
	Interpretations []Entry `yaml:"interpretations" validate:"dive"`
}

type key struct {
	transiting models.CelestialBody
	natal      models.CelestialBody
	aspect     string
}

// Catalog is an immutable lookup table keyed by exact
// (transiting, natal, aspect) triples.
type Catalog struct {
	entries map[key]string
}

// Load builds the built-in catalog and, when path is set, applies the
// entries from that file on top. Later entries override earlier ones.
func Load(path string) (*Catalog, error) {
	c := &Catalog{entries: make(map[key]string)}
	if err := c.merge(builtin); err != nil {
		return nil, fmt.Errorf("builtin catalog: %w", err)
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read interpretations file: %w", err)
	}
	if err := c.merge(data); err != nil {
		return nil, fmt.Errorf("interpretations file %s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Load("")
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) merge(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	for _, e := range f.Interpretations {
		c.entries[key{models.CelestialBody(e.Transiting), models.CelestialBody(e.Natal), e.Aspect}] = e.Text
	}
	return nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the text stored for the exact triple.
func (c *Catalog) Lookup(transiting, natal models.CelestialBody, aspect string) (string, bool) {
	text, ok := c.entries[key{transiting, natal, aspect}]
	return text, ok
}

// Interpret renders "<T> <aspect> <N> (orb <orb>°): <text>", falling back to
// a generic sentence when the triple is unknown.
func (c *Catalog) Interpret(m models.AspectMatch) string {
	text, ok := c.Lookup(m.TransitingBody, m.NatalBody, m.Aspect)
	if !ok {
		text = Fallback
	}
	return fmt.Sprintf("%s %s %s (orb %s°): %s", m.TransitingBody, m.Aspect, m.NatalBody, FormatOrb(m.Orb), text)
}

// FormatOrb prints the shortest decimal form, always with a fractional part
// ("2.0", "0.25").
func FormatOrb(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEN") {
		s += ".0"
	}
	return s
}
