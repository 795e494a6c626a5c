package folders

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// DefaultPackageSize is used when a package-tracked folder omits
// package_size in the registry config.
const DefaultPackageSize = 10

// Registry holds the folder definitions loaded from the embedded config.
// It is immutable after construction.
type Registry struct {
	folders []Folder
	byID    map[string]Folder
}

// NewRegistry creates a new folder registry from the embedded YAML file
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/folders.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read folders config: %w", err)
	}

	var file folderFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal folders config: %w", err)
	}

	if len(file.Folders) == 0 {
		return nil, fmt.Errorf("folders config defines no folders")
	}

	r := &Registry{
		folders: file.Folders,
		byID:    make(map[string]Folder, len(file.Folders)),
	}
	for i := range file.Folders {
		f := file.Folders[i]
		if f.PackageTracked && f.PackageSize == 0 {
			f.PackageSize = DefaultPackageSize
			r.folders[i].PackageSize = DefaultPackageSize
		}
		r.byID[f.ID] = f
	}

	return r, nil
}

// List returns all folders in config order
func (r *Registry) List() []Folder {
	return r.folders
}

// Get returns a folder by ID
func (r *Registry) Get(id string) (Folder, bool) {
	f, ok := r.byID[id]
	return f, ok
}

// IsKnown reports whether the folder ID is defined in the registry
func (r *Registry) IsKnown(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// IsPackageTracked reports whether sessions in the folder are grouped
// into numbered packages
func (r *Registry) IsPackageTracked(id string) bool {
	f, ok := r.byID[id]
	return ok && f.PackageTracked
}

// PackageSize returns the package capacity for a folder.
// Returns 0 for folders that are not package-tracked.
func (r *Registry) PackageSize(id string) int {
	f, ok := r.byID[id]
	if !ok || !f.PackageTracked {
		return 0
	}
	return f.PackageSize
}
