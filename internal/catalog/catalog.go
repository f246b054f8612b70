// Package catalog reads and writes YAML string catalogs. Nested mappings
// are addressed by dot-joined paths ("nav.home"); key order, comments and
// non-string values survive a round trip.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPath is returned by Set for paths the catalog does not hold.
var ErrUnknownPath = errors.New("unknown catalog path")

// Entry is one translatable string.
type Entry struct {
	Path string
	Text string
}

type File struct {
	doc    *yaml.Node
	leaves []*yaml.Node
	paths  []string
	index  map[string]int
}

func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	f := &File{doc: &doc, index: make(map[string]int)}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML root must be a mapping, got kind %d", root.Kind)
	}
	f.collect(root, "")
	return f, nil
}

func (f *File) collect(node *yaml.Node, prefix string) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		path := key.Value
		if prefix != "" {
			path = prefix + "." + key.Value
		}

		switch val.Kind {
		case yaml.MappingNode:
			f.collect(val, path)
		case yaml.ScalarNode:
			if val.ShortTag() != "!!str" {
				continue
			}
			if _, dup := f.index[path]; dup {
				continue
			}
			f.index[path] = len(f.leaves)
			f.leaves = append(f.leaves, val)
			f.paths = append(f.paths, path)
		}
	}
}

// Entries returns the string leaves in document order.
func (f *File) Entries() []Entry {
	out := make([]Entry, len(f.leaves))
	for i, n := range f.leaves {
		out[i] = Entry{Path: f.paths[i], Text: n.Value}
	}
	return out
}

func (f *File) Len() int {
	return len(f.leaves)
}

// Set replaces the text at path, keeping the value a string even when the
// new text would read as a number or boolean.
func (f *File) Set(path, text string) error {
	i, ok := f.index[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	n := f.leaves[i]
	n.Value = text
	n.Tag = "!!str"
	if n.Style == yaml.LiteralStyle || n.Style == yaml.FoldedStyle {
		return nil
	}
	if bytes.ContainsRune([]byte(text), '\n') {
		n.Style = yaml.LiteralStyle
	}
	return nil
}

func (f *File) Marshal() ([]byte, error) {
	if f.doc.Kind == 0 {
		return []byte("{}\n"), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.doc); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
