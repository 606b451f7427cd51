// Package manifest implements the per-package declarative dependency file
// spec.md treats as an external collaborator (§1, §6): a small YAML
// mapping of local dependency name to {url|path, hash}. yaml.v3 node
// positions give each field the line/column spec.md's Dependency record
// calls "token indices pointing back into the manifest's syntax tree",
// which diagnostics anchor on.
package manifest

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxSize is the size cap spec.md §4.11 imposes when reading a manifest
// file, to bound memory use on a hostile or corrupt dependency.
const MaxSize = 10 * 1024 * 1024

// Dependency is a single declared dependency: its location (a url or a
// path, never both), an optional expected hash, and the source positions
// of each so diagnostics can point at them.
type Dependency struct {
	Name string

	IsURL    bool
	Location string

	LocationLine   int
	LocationColumn int

	HasHash    bool
	Hash       string
	HashLine   int
	HashColumn int
}

// Manifest is a parsed dependency-declaration file.
type Manifest struct {
	Path         string
	Dependencies []Dependency

	sourceLines []string
}

// SourceLine returns the 1-indexed source line text for a diagnostic,
// or "" if out of range.
func (m *Manifest) SourceLine(line int) string {
	if line < 1 || line > len(m.sourceLines) {
		return ""
	}
	return m.sourceLines[line-1]
}

// Parse reads and parses a manifest from r. A manifest with no
// "dependencies" mapping at all parses successfully with zero
// Dependencies — spec.md §4.11/§7/§8 are explicit that a missing manifest
// (and, by extension, one with no dependencies) is not an error.
func Parse(path string, r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("manifest %s exceeds %d byte limit", path, MaxSize)
	}

	m := &Manifest{Path: path, sourceLines: strings.Split(string(data), "\n")}

	if len(strings.TrimSpace(string(data))) == 0 {
		return m, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return m, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing manifest %s: top level must be a mapping", path)
	}

	depsNode := mappingValue(root, "dependencies")
	if depsNode == nil {
		return m, nil
	}
	if depsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing manifest %s: dependencies must be a mapping", path)
	}

	for i := 0; i+1 < len(depsNode.Content); i += 2 {
		nameNode := depsNode.Content[i]
		depNode := depsNode.Content[i+1]
		if depNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("parsing manifest %s: dependency %q must be a mapping", path, nameNode.Value)
		}

		dep := Dependency{Name: nameNode.Value}

		if urlNode := mappingValue(depNode, "url"); urlNode != nil {
			dep.IsURL = true
			dep.Location = urlNode.Value
			dep.LocationLine = urlNode.Line
			dep.LocationColumn = urlNode.Column
		} else if pathNode := mappingValue(depNode, "path"); pathNode != nil {
			dep.IsURL = false
			dep.Location = pathNode.Value
			dep.LocationLine = pathNode.Line
			dep.LocationColumn = pathNode.Column
		} else {
			return nil, fmt.Errorf("parsing manifest %s: dependency %q has neither url nor path", path, dep.Name)
		}

		if hashNode := mappingValue(depNode, "hash"); hashNode != nil {
			dep.HasHash = true
			dep.Hash = hashNode.Value
			dep.HashLine = hashNode.Line
			dep.HashColumn = hashNode.Column
		}

		m.Dependencies = append(m.Dependencies, dep)
	}

	return m, nil
}

// mappingValue finds key's value node in a YAML mapping node, or nil.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
