// Package schema loads the loyalty database schema from per-table YAML
// files and formats it for prompt construction.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Column describes a single table column.
type Column struct {
	Name        string         `yaml:"name" json:"name"`
	Type        string         `yaml:"type" json:"type"`
	Description string         `yaml:"description" json:"description"`
	Properties  map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Table describes a single database table.
type Table struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Columns     []Column `yaml:"columns" json:"columns"`
}

// Schema holds all known tables, ordered by name.
type Schema struct {
	Tables []Table `json:"tables"`
}

// Load reads every *.yml / *.yaml file in dir as a table definition.
// Files missing a name or columns are skipped with a warning.
func Load(dir string, logger *zap.Logger) (*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %s: %w", dir, err)
	}

	s := &Schema{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema file %s: %w", entry.Name(), err)
		}

		var table Table
		if err := yaml.Unmarshal(data, &table); err != nil {
			logger.Warn("invalid schema file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if table.Name == "" || len(table.Columns) == 0 {
			logger.Warn("schema file missing name or columns", zap.String("file", entry.Name()))
			continue
		}

		s.Tables = append(s.Tables, table)
	}

	sort.Slice(s.Tables, func(i, j int) bool { return s.Tables[i].Name < s.Tables[j].Name })

	logger.Info("database schema loaded",
		zap.Int("tables", len(s.Tables)),
		zap.String("dir", dir))

	return s, nil
}

// TableNames returns the names of all known tables.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Lookup returns the table with the given name, if present.
func (s *Schema) Lookup(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Select returns the subset of tables whose names appear in names, preserving
// schema order. Unknown names are ignored.
func (s *Schema) Select(names []string) []Table {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}

	var out []Table
	for _, t := range s.Tables {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

// Descriptions returns a name -> description map for table selection prompts.
func (s *Schema) Descriptions() map[string]string {
	out := make(map[string]string, len(s.Tables))
	for _, t := range s.Tables {
		out[t.Name] = t.Description
	}
	return out
}

var wordPattern = regexp.MustCompile(`[a-zA-Z_]+`)

// KeywordMatch is the fallback table matcher used when model-driven table
// selection fails. It matches question words against table names and
// descriptions, comparing singular forms so "customers" matches "customer".
func (s *Schema) KeywordMatch(question string) []Table {
	words := wordPattern.FindAllString(strings.ToLower(question), -1)

	var out []Table
	for _, t := range s.Tables {
		haystack := strings.ToLower(t.Name + " " + t.Description)
		for _, w := range words {
			if len(w) < 4 {
				continue
			}
			if strings.Contains(haystack, inflection.Singular(w)) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// FormatForPrompt renders the given tables in the layout SQL generation
// prompts expect.
func FormatForPrompt(tables []Table) string {
	var b strings.Builder
	b.WriteString("DATABASE SCHEMA:\n\n")

	for _, t := range tables {
		fmt.Fprintf(&b, "TABLE: %s\n", t.Name)
		fmt.Fprintf(&b, "DESCRIPTION: %s\n", t.Description)
		b.WriteString("COLUMNS:\n")

		for _, c := range t.Columns {
			fmt.Fprintf(&b, "  - %s (%s): %s", c.Name, c.Type, c.Description)
			if len(c.Properties) > 0 {
				keys := make([]string, 0, len(c.Properties))
				for k := range c.Properties {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				props := make([]string, 0, len(keys))
				for _, k := range keys {
					props = append(props, fmt.Sprintf("%s=%v", k, c.Properties[k]))
				}
				fmt.Fprintf(&b, " [%s]", strings.Join(props, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}
