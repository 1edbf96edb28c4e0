package module

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Extensions are the definition file extensions, in lookup order.
var Extensions = []string{".yaml", ".yml", ".json"}

// Loader loads the module for an identity. A missing module is reported with
// an error wrapping ErrNotFound.
type Loader interface {
	Load(identity string) (*Module, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(identity string) (*Module, error)

// Load implements Loader.
func (f LoaderFunc) Load(identity string) (*Module, error) { return f(identity) }

// Fingerprint identifies the on-disk contents of a definition.
type Fingerprint struct {
	Path    string
	ModTime time.Time
	Size    int64
	Hash    string
}

// Equal reports whether two fingerprints describe the same contents.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Path == other.Path && f.ModTime.Equal(other.ModTime) && f.Size == other.Size && f.Hash == other.Hash
}

// Stale reports whether the file f describes changed or disappeared since f
// was taken.
func (f Fingerprint) Stale() bool {
	_, current, err := readFingerprinted(f.Path)
	return err != nil || !current.Equal(f)
}

// Fingerprinter is implemented by loaders that can tell whether a definition
// changed without compiling it.
type Fingerprinter interface {
	Fingerprint(identity string) (Fingerprint, error)
}

// FileLoader loads module definitions from a mock root directory.
type FileLoader struct {
	Root string
}

// NewFileLoader returns a loader reading definitions below root.
func NewFileLoader(root string) *FileLoader {
	return &FileLoader{Root: root}
}

// Locate returns the definition file for identity.
func (l *FileLoader) Locate(identity string) (string, error) {
	base := filepath.Join(l.Root, filepath.FromSlash(identity))
	for _, ext := range Extensions {
		p := base + ext
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no definition for %q under %s", ErrNotFound, identity, l.Root)
}

// Fingerprint implements Fingerprinter.
func (l *FileLoader) Fingerprint(identity string) (Fingerprint, error) {
	p, err := l.Locate(identity)
	if err != nil {
		return Fingerprint{}, err
	}
	_, fp, err := readFingerprinted(p)
	return fp, err
}

// Load implements Loader.
func (l *FileLoader) Load(identity string) (*Module, error) {
	p, err := l.Locate(identity)
	if err != nil {
		return nil, err
	}
	data, fp, err := readFingerprinted(p)
	if err != nil {
		return nil, err
	}
	def, err := ParseDefinition(data, FormatFor(p))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	m, err := Compile(identity, filepath.Dir(p), def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	m.Source = p
	m.Fingerprint = fp
	return m, nil
}

// Identities lists every module identity defined below the root, sorted.
// Hidden directories, such as the upload directory, are skipped.
func (l *FileLoader) Identities() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(l.Root), "**/*.{yaml,yml,json}")
	if err != nil {
		return nil, fmt.Errorf("scan mock root %s: %w", l.Root, err)
	}

	seen := make(map[string]bool, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		id, ok := identityFromRel(m)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// IdentityFor maps a definition file path back to its module identity.
func (l *FileLoader) IdentityFor(file string) (string, bool) {
	rel, err := filepath.Rel(l.Root, file)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return identityFromRel(filepath.ToSlash(rel))
}

func identityFromRel(rel string) (string, bool) {
	ext := path.Ext(rel)
	known := false
	for _, e := range Extensions {
		if strings.EqualFold(ext, e) {
			known = true
			break
		}
	}
	if !known {
		return "", false
	}
	id := strings.TrimSuffix(rel, ext)
	for _, seg := range strings.Split(id, "/") {
		if seg == "" || strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	if !strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func readFingerprinted(p string) ([]byte, Fingerprint, error) {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Fingerprint{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, Fingerprint{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, Fingerprint{}, err
	}
	sum := sha256.Sum256(data)
	return data, Fingerprint{
		Path:    p,
		ModTime: info.ModTime(),
		Size:    info.Size(),
		Hash:    hex.EncodeToString(sum[:]),
	}, nil
}

// StaticLoader serves modules built in Go, keyed by identity.
type StaticLoader map[string]*Module

// Load implements Loader.
func (s StaticLoader) Load(identity string) (*Module, error) {
	m, ok := s[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, identity)
	}
	return m, nil
}

// ChainLoader tries each loader in order and returns the first module found.
// An error other than ErrNotFound stops the chain.
type ChainLoader []Loader

// Load implements Loader.
func (c ChainLoader) Load(identity string) (*Module, error) {
	for _, l := range c {
		m, err := l.Load(identity)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, identity)
}
