package unpack

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

const (
	// ManifestName is the manifest file written into every unpacked directory.
	ManifestName = "_zpack.toml"

	// Decoder identifies manifests written by this package.
	Decoder = "zpack"
)

// Manifest describes an unpacked archive.
type Manifest struct {
	// Decoder names the tool that wrote the manifest.
	Decoder string `toml:"decoder"`

	// HeaderName and DataName are the archive file names Repack writes.
	HeaderName string `toml:"header_name"`
	DataName   string `toml:"data_name"`

	// Entries lists the archive entries in table order.
	Entries []ManifestEntry `toml:"entry"`
}

// ManifestEntry describes one archive entry.
type ManifestEntry struct {
	// Name is the entry name stored in the header table.
	Name string `toml:"name"`

	// Filename is the extracted file name when it differs from Name.
	Filename string `toml:"filename,omitempty"`

	// Tag is the entry's opaque tag.
	Tag int16 `toml:"tag"`

	// Dummy marks an entry without a payload; no file is extracted for it.
	Dummy bool `toml:"dummy,omitempty"`

	// Presence is the entry's presence value when it is not the canonical
	// zpack.PresenceNormal. Zero means canonical.
	Presence int32 `toml:"presence,omitempty"`
}

// File returns the extracted file name of the entry.
func (e ManifestEntry) File() string {
	if e.Filename != "" {
		return e.Filename
	}
	return e.Name
}

// Marshal encodes the manifest as TOML.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Order(toml.OrderPreserve).Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseManifest decodes a TOML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	for i, e := range m.Entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrManifest, i)
		}
	}
	return &m, nil
}

// LoadManifest reads the manifest in dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path) //nolint:gosec // caller-provided path is intentional
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, &fs.PathError{Op: "load manifest", Path: path, Err: err}
	}
	return m, nil
}

// Save writes the manifest into dir atomically.
func (m *Manifest) Save(dir string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, ManifestName), data)
}

// writeFileAtomic writes data to a temp file then renames to target,
// ensuring atomic replacement of the target file.
func writeFileAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".zpack-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // manifest is not sensitive
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
