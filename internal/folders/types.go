package folders

// Folder describes one record category.
// Package-tracked folders partition a student's sessions into fixed-size
// numbered packages; plain folders are a flat log.
type Folder struct {
	ID             string `yaml:"id" json:"id"`
	Label          string `yaml:"label" json:"label"`
	PackageTracked bool   `yaml:"package_tracked" json:"package_tracked"`
	PackageSize    int    `yaml:"package_size,omitempty" json:"package_size,omitempty"`
}

// folderFile is the on-disk shape of the embedded registry config
type folderFile struct {
	Folders []Folder `yaml:"folders"`
}
