package profile

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed resources
var resourcesFS embed.FS

const resourcesRoot = "resources"

// BundledProfileIDs enumerates the identifiers of every profile shipped with
// the library, in lexicographic order.
func BundledProfileIDs() []string {
	var ids []string
	fs.WalkDir(resourcesFS, resourcesRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".yaml") {
			return nil
		}
		ids = append(ids, strings.TrimSuffix(path.Base(p), ".yaml"))
		return nil
	})
	sort.Strings(ids)
	return ids
}

// LoadBundled loads a bundled profile by identifier. Profiles live under
// resources/<manufacturer>/<id>.yaml.
func LoadBundled(id string) (*InverterDefinition, error) {
	entries, err := fs.ReadDir(resourcesFS, resourcesRoot)
	if err != nil {
		return nil, &LoadError{ID: id, Err: err}
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := path.Join(resourcesRoot, e.Name(), id+".yaml")
		data, err := resourcesFS.ReadFile(p)
		if err != nil {
			continue
		}
		return Decode(id, data)
	}
	return nil, &LoadError{ID: id, Err: fmt.Errorf("no bundled profile %q", id)}
}

// BundledRegistry builds a registry from the info blocks of every bundled
// profile, in enumeration order.
func BundledRegistry() (*Registry, error) {
	var refs []ProfileRef
	for _, id := range BundledProfileIDs() {
		def, err := LoadBundled(id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ProfileRef{
			ID:           id,
			Manufacturer: def.Info.Manufacturer,
			Patterns:     def.Info.Models,
		})
	}
	return NewRegistry(refs), nil
}
