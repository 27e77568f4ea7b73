package puzzle

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed content/books.yaml
var content embed.FS

const builtinPath = "content/books.yaml"

var (
	builtinOnce  sync.Once
	builtinTable *Table
	builtinErr   error
)

// Builtin returns the embedded 66-book table. The result is shared and must
// not be modified.
func Builtin() (*Table, error) {
	builtinOnce.Do(func() {
		b, err := content.ReadFile(builtinPath)
		if err != nil {
			builtinErr = err
			return
		}
		builtinTable, builtinErr = Parse(b, "builtin:"+builtinPath)
	})
	return builtinTable, builtinErr
}

// Load reads path when set, otherwise falls back to the builtin table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Builtin()
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b, path)
}

func Parse(b []byte, source string) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", source, err)
	}
	t.Source = source
	return &t, nil
}
