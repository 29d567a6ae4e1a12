package bootstrappers

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest lists bootstrappers by class id so the catalog can live in a
// config file instead of code:
//
//	eager:
//	  - app.logging
//	lazy:
//	  app.router: [router]
//	  app.cache: [cache, cache.store]
//	  app.mailer: []          # use the bootstrapper's own Bindings()
//
// Lazy entries keep their file order.
type Manifest struct {
	Eager []ClassID    `yaml:"eager"`
	Lazy  LazyManifest `yaml:"lazy"`
}

// LazyManifestEntry is one entry of the manifest's lazy mapping.
type LazyManifestEntry struct {
	Class    ClassID
	Bindings []string
}

// LazyManifest is the ordered lazy mapping of a manifest.
type LazyManifest []LazyManifestEntry

// UnmarshalYAML decodes a mapping of class id → bound names, keeping order.
func (l *LazyManifest) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: lazy must be a mapping of bootstrapper to bindings", node.Line)
	}
	entries := make(LazyManifest, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry LazyManifestEntry
		if err := node.Content[i].Decode(&entry.Class); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&entry.Bindings); err != nil {
			return fmt.Errorf("lazy %s: %w", entry.Class, err)
		}
		entries = append(entries, entry)
	}
	*l = entries
	return nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest load failed (%s): %w", path, err)
	}
	defer f.Close()

	m, err := ParseManifest(f)
	if err != nil {
		return nil, fmt.Errorf("manifest parse failed (%s): %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a manifest from r. An empty document is an empty
// manifest.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &m, nil
}

// Apply registers every bootstrapper named in the manifest, looking up
// its factory by class id.
func (m *Manifest) Apply(r *Registry, factories map[ClassID]Factory) error {
	lookup := func(id ClassID) (Factory, error) {
		f, ok := factories[id]
		if !ok {
			return nil, fmt.Errorf("manifest: %s: %w", id, ErrUnknownBootstrapper)
		}
		return f, nil
	}

	for _, id := range m.Eager {
		f, err := lookup(id)
		if err != nil {
			return err
		}
		if err := r.RegisterEager(id, f); err != nil {
			return err
		}
	}

	for _, entry := range m.Lazy {
		f, err := lookup(entry.Class)
		if err != nil {
			return err
		}
		names := entry.Bindings
		if len(names) == 0 {
			b := f()
			lazy, ok := b.(LazyBootstrapper)
			if !ok {
				return fmt.Errorf("manifest: %s: no bindings listed and %T does not declare any", entry.Class, b)
			}
			names = lazy.Bindings()
			f = func() Bootstrapper { return b }
		}
		if err := r.RegisterLazy(entry.Class, f, names...); err != nil {
			return err
		}
	}
	return nil
}
