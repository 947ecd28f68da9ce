package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// extensions tried, in order, when a URL names a file without one.
var extensions = []string{".jsonld", ".json", ".yaml", ".yml"}

// Dir serves context files from a file system. A URL is mapped to a file by
// stripping Prefix and treating the remainder as a slash-separated path.
//
//	d := loader.NewDir(os.DirFS("contexts"), "https://example.org/ctx/")
//	d.Load(ctx, "https://example.org/ctx/person") // reads person.jsonld
type Dir struct {
	fsys   fs.FS
	prefix string
}

// NewDir creates a loader over fsys serving URLs under prefix.
// An empty prefix maps bare file names ("person.jsonld") to files.
func NewDir(fsys fs.FS, prefix string) *Dir {
	return &Dir{fsys: fsys, prefix: prefix}
}

// NewOSDir creates a loader over the directory root.
func NewOSDir(root, prefix string) *Dir {
	return NewDir(os.DirFS(root), prefix)
}

// Prefix returns the URL prefix served by d.
func (d *Dir) Prefix() string {
	return d.prefix
}

// Name maps url to a file name in d, or reports false when url lies outside
// the prefix.
func (d *Dir) Name(url string) (string, bool) {
	if !strings.HasPrefix(url, d.prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(url, d.prefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimPrefix(path.Clean("/"+rest), "/")
	if rest == "" || !fs.ValidPath(rest) {
		return "", false
	}
	return rest, true
}

// URL maps a file name in d back to the URL it serves.
func (d *Dir) URL(name string) string {
	return d.prefix + filepath.ToSlash(name)
}

// Load implements Loader.
func (d *Dir) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	name, ok := d.Name(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s outside %q", ErrNotSupported, url, d.prefix)
	}

	candidates := []string{name}
	if path.Ext(name) == "" {
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		data, err := fs.ReadFile(d.fsys, c)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", c, err)
		}
		doc, err := parse(c, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", c, err)
		}
		return &RemoteDocument{URL: url, Document: doc, ContentType: mediaTypeFor(c)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
}

func isYAML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func mediaTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return MediaTypeJSON
	case ".yaml", ".yml":
		return MediaTypeYAML
	default:
		return MediaTypeJSONLD
	}
}
