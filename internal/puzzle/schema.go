package puzzle

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	TableKind              = "puzzle_table"
	SupportedSchemaVersion = 1
)

var (
	ErrInvalidTable = errors.New("invalid puzzle table")

	idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)
)

// Book is one puzzle item: a hidden short label that reveals the full name.
type Book struct {
	Short   string `yaml:"short" json:"short"`
	Name    string `yaml:"name" json:"name"`
	Ordinal int    `yaml:"ordinal" json:"ordinal"`
}

type Level struct {
	Title string `yaml:"title" json:"title"`
	Items []Book `yaml:"items" json:"items"`
}

// Table is the read-only, ordered level/book layout for a stage.
type Table struct {
	Kind          string  `yaml:"kind"`
	SchemaVersion int     `yaml:"schema_version"`
	TableID       string  `yaml:"table_id"`
	Title         string  `yaml:"title"`
	Levels        []Level `yaml:"levels"`

	Source string `yaml:"-"`
}

func (t *Table) LevelCount() int {
	if t == nil {
		return 0
	}
	return len(t.Levels)
}

// ItemsInLevel returns 0 for a level outside the table.
func (t *Table) ItemsInLevel(level int) int {
	if t == nil || level < 0 || level >= len(t.Levels) {
		return 0
	}
	return len(t.Levels[level].Items)
}

func (t *Table) ItemAt(level, index int) (Book, bool) {
	if index < 0 || index >= t.ItemsInLevel(level) {
		return Book{}, false
	}
	return t.Levels[level].Items[index], true
}

func (t *Table) LevelTitle(level int) string {
	if t == nil || level < 0 || level >= len(t.Levels) {
		return ""
	}
	return t.Levels[level].Title
}

// TotalItems counts books across every level.
func (t *Table) TotalItems() int {
	n := 0
	for i := 0; i < t.LevelCount(); i++ {
		n += t.ItemsInLevel(i)
	}
	return n
}

// Locate maps a global ordinal back to its level and index.
func (t *Table) Locate(ordinal int) (level, index int, ok bool) {
	for l := 0; l < t.LevelCount(); l++ {
		for i, b := range t.Levels[l].Items {
			if b.Ordinal == ordinal {
				return l, i, true
			}
		}
	}
	return 0, 0, false
}

func (t Table) Validate() error {
	if t.Kind != TableKind {
		return invalid("kind must be %q", TableKind)
	}
	if t.SchemaVersion == 0 {
		return invalid("schema_version is required")
	}
	if t.SchemaVersion > SupportedSchemaVersion {
		return invalid("unsupported schema_version %d (max supported %d)", t.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(t.TableID) {
		return invalid("invalid table_id %q", t.TableID)
	}
	if len(t.Levels) == 0 {
		return invalid("levels must contain at least one level")
	}

	// Ordinals run 1..N across the whole table, in reading order.
	next := 1
	for li, lvl := range t.Levels {
		if len(lvl.Items) == 0 {
			return invalid("levels[%d] has no items", li)
		}
		for ii, b := range lvl.Items {
			if strings.TrimSpace(b.Short) == "" {
				return invalid("levels[%d].items[%d].short is required", li, ii)
			}
			if strings.TrimSpace(b.Name) == "" {
				return invalid("levels[%d].items[%d].name is required", li, ii)
			}
			if b.Ordinal != next {
				return invalid("levels[%d].items[%d] (%s): ordinal %d, want %d", li, ii, b.Name, b.Ordinal, next)
			}
			next++
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTable, fmt.Sprintf(format, args...))
}
