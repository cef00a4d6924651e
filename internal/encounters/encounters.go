// Package encounters holds the static table of known enemies and their
// combat tiers.
package encounters

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed encounters.toml
var defaultTable []byte

var (
	ErrDuplicateEncounter = errors.New("duplicate encounter")
	ErrInvalidEncounter   = errors.New("invalid encounter")
)

// Encounter is one row of the table.
type Encounter struct {
	Name  string `toml:"name"`
	Class string `toml:"class"`
	Tier  int    `toml:"tier"`
}

type file struct {
	Encounters []Encounter `toml:"encounter"`
}

// Table maps enemy names to encounters. It is read-only after loading and
// safe for concurrent use.
type Table struct {
	byName map[string]Encounter
}

// Default returns the embedded table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads the table from path, or the embedded table when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encounter table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a TOML encounter table. Unknown keys are rejected so a
// misspelt "teir" does not silently fall back to tier 1.
func Parse(data []byte) (*Table, error) {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encounter table: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidEncounter, strings.Join(keys, ", "))
	}

	t := &Table{byName: make(map[string]Encounter, len(f.Encounters))}
	for i, e := range f.Encounters {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidEncounter, i)
		}
		if e.Tier < 1 {
			return nil, fmt.Errorf("%w: %q has tier %d", ErrInvalidEncounter, e.Name, e.Tier)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEncounter, e.Name)
		}
		t.byName[e.Name] = e
	}
	return t, nil
}

// Lookup возвращает строку таблицы по точному имени противника.
func (t *Table) Lookup(name string) (Encounter, bool) {
	if t == nil {
		return Encounter{}, false
	}
	e, ok := t.byName[name]
	return e, ok
}

// All returns every encounter sorted by tier, then name.
func (t *Table) All() []Encounter {
	if t == nil {
		return nil
	}
	out := make([]Encounter, 0, len(t.byName))
	for _, e := range t.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byName)
}
