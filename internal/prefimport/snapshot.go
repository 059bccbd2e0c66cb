// Package prefimport reads exported preference snapshots, matches them
// against transfer filters and applies the matching values.
package prefimport

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"workbench/internal/errors"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Format of a snapshot file
type Format string

const (
	FormatEPF  Format = "epf"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension. Unknown
// extensions are read as epf.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatEPF
	}
}

// Snapshot is a set of exported preferences: scope -> node -> key -> value
type Snapshot struct {
	ID      string
	Version string
	scopes  map[string]map[string]map[string]string
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ID:     uuid.NewString(),
		scopes: make(map[string]map[string]map[string]string),
	}
}

// Set stores a value
func (s *Snapshot) Set(scope, node, key, value string) {
	nodes, ok := s.scopes[scope]
	if !ok {
		nodes = make(map[string]map[string]string)
		s.scopes[scope] = nodes
	}
	keys, ok := nodes[node]
	if !ok {
		keys = make(map[string]string)
		nodes[node] = keys
	}
	keys[key] = value
}

// Get returns a value
func (s *Snapshot) Get(scope, node, key string) (string, bool) {
	v, ok := s.scopes[scope][node][key]
	return v, ok
}

// Scopes returns the scope names, sorted
func (s *Snapshot) Scopes() []string {
	return sortedKeys(s.scopes)
}

// Nodes returns the node names of scope, sorted
func (s *Snapshot) Nodes(scope string) []string {
	return sortedKeys(s.scopes[scope])
}

// Keys returns the keys of node in scope, sorted
func (s *Snapshot) Keys(scope, node string) []string {
	return sortedKeys(s.scopes[scope][node])
}

// Len returns the number of values
func (s *Snapshot) Len() int {
	n := 0
	for _, nodes := range s.scopes {
		for _, keys := range nodes {
			n += len(keys)
		}
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// snapshotFile is the YAML and TOML layout of a snapshot
type snapshotFile struct {
	Version string                                  `yaml:"version" toml:"version"`
	Scopes  map[string]map[string]map[string]string `yaml:"scopes" toml:"scopes"`
}

// ReadSnapshot parses a snapshot in the given format
func ReadSnapshot(r io.Reader, format Format) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "error reading preferences")
	}

	switch format {
	case FormatEPF, "":
		return parseEPF(data)
	case FormatYAML:
		var file snapshotFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.NewConfigError("error parsing preferences", "yaml", errors.PreferenceImportFailed, err)
		}
		return fromFile(file), nil
	case FormatTOML:
		var file snapshotFile
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
			return nil, errors.NewConfigError("error parsing preferences", "toml", errors.PreferenceImportFailed, err)
		}
		return fromFile(file), nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported preference format %q", format), "format", errors.PreferenceImportFailed, nil)
	}
}

func fromFile(file snapshotFile) *Snapshot {
	snap := NewSnapshot()
	snap.Version = file.Version
	for scope, nodes := range file.Scopes {
		for node, keys := range nodes {
			for key, value := range keys {
				snap.Set(scope, node, key, value)
			}
		}
	}
	return snap
}

// parseEPF reads the Eclipse preference export format: a properties file
// whose keys look like /scope/node/key. Other keys (the export version,
// bundle versions, root markers) are not preference values.
func parseEPF(data []byte) (*Snapshot, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadBytes(data)
	if err != nil {
		return nil, errors.NewConfigError("error parsing preferences", "epf", errors.PreferenceImportFailed, err)
	}

	snap := NewSnapshot()
	for _, raw := range props.Keys() {
		value, _ := props.Get(raw)
		if raw == "file_export_version" {
			snap.Version = value
			continue
		}
		if !strings.HasPrefix(raw, "/") {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(raw, "/"), "/")
		if len(parts) < 3 {
			continue
		}
		scope := parts[0]
		key := parts[len(parts)-1]
		node := strings.Join(parts[1:len(parts)-1], "/")
		if scope == "" || node == "" || key == "" {
			continue
		}
		snap.Set(scope, node, key, value)
	}
	return snap, nil
}

// WriteEPF writes snap in the Eclipse preference export format
func WriteEPF(w io.Writer, snap *Snapshot) error {
	props := properties.NewProperties()
	props.DisableExpansion = true
	version := snap.Version
	if version == "" {
		version = "3.0"
	}
	if _, _, err := props.Set("file_export_version", version); err != nil {
		return err
	}
	for _, scope := range snap.Scopes() {
		for _, node := range snap.Nodes(scope) {
			for _, key := range snap.Keys(scope, node) {
				value, _ := snap.Get(scope, node, key)
				if _, _, err := props.Set("/"+scope+"/"+node+"/"+key, value); err != nil {
					return err
				}
			}
		}
	}
	_, err := props.Write(w, properties.UTF8)
	return err
}
