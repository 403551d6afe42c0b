package types

import "fmt"

// Metadata aggregates every Directory produced while extracting one file.
//
// A Metadata value is always returned, even for empty or unrecognized
// input. Directories may be empty or contain only errors.
type Metadata struct {
	// Path of the source, if known
	Path string

	// Detected container format
	Format Format

	// Size of the source in bytes (-1 for streams of unknown length)
	Size int64

	directories []*Directory
}

// NewMetadata creates an empty Metadata for the given source.
func NewMetadata(path string, format Format, size int64) *Metadata {
	return &Metadata{Path: path, Format: format, Size: size}
}

// AddDirectory appends d. Adding the same directory twice is a no-op.
func (m *Metadata) AddDirectory(d *Directory) {
	for _, existing := range m.directories {
		if existing == d {
			return
		}
	}
	m.directories = append(m.directories, d)
}

// Directories returns the directories in the order they were added.
func (m *Metadata) Directories() []*Directory {
	return m.directories
}

// Directory returns the first directory with the given name, or nil.
func (m *Metadata) Directory(name string) *Directory {
	for _, d := range m.directories {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// DirectoriesNamed returns every directory with the given name.
func (m *Metadata) DirectoriesNamed(name string) []*Directory {
	var out []*Directory
	for _, d := range m.directories {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns every recorded error prefixed with its directory name.
func (m *Metadata) Errors() []string {
	var out []string
	for _, d := range m.directories {
		for _, e := range d.Errors() {
			out = append(out, fmt.Sprintf("%s: %s", d.Name, e))
		}
	}
	return out
}

// HasErrors reports whether any directory recorded an error.
func (m *Metadata) HasErrors() bool {
	for _, d := range m.directories {
		if d.HasErrors() {
			return true
		}
	}
	return false
}

// Compact removes directories that have neither tags nor errors.
func (m *Metadata) Compact() {
	kept := m.directories[:0]
	for _, d := range m.directories {
		if !d.IsEmpty() {
			kept = append(kept, d)
		}
	}
	clear(m.directories[len(kept):])
	m.directories = kept
}
