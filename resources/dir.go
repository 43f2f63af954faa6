package resources

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/ggoodman/mcp-transport-go/mcp"
)

// Dir exposes the files under an OS directory as resources. Listing scans
// the tree on demand; Watch streams change notifications from fsnotify.
type Dir struct {
	root     string
	baseURI  string
	pageSize int
	log      *slog.Logger

	watching atomic.Bool
}

var _ Provider = (*Dir)(nil)

// DirOption customizes a Dir.
type DirOption func(*Dir)

// WithBaseURI overrides the URI prefix resources are advertised under. The
// default is "file://".
func WithBaseURI(base string) DirOption {
	return func(d *Dir) {
		if base != "" && !strings.HasSuffix(base, "/") {
			base += "/"
		}
		d.baseURI = base
	}
}

// WithDirPageSize overrides the listing page size.
func WithDirPageSize(n int) DirOption {
	return func(d *Dir) {
		if n > 0 {
			d.pageSize = n
		}
	}
}

// WithDirLogger overrides the logger.
func WithDirLogger(log *slog.Logger) DirOption {
	return func(d *Dir) { d.log = log }
}

// NewDir builds a provider rooted at the given directory.
func NewDir(root string, opts ...DirOption) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}

	d := &Dir{
		root:     abs,
		baseURI:  "file://",
		pageSize: 50,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// List implements Provider by walking the tree. Resources are ordered by
// URI; symlinks are skipped.
func (d *Dir) List(ctx context.Context, cursor *string) (Page, error) {
	var all []mcp.Resource
	err := filepath.WalkDir(d.root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if de.IsDir() || de.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		all = append(all, mcp.Resource{
			URI:      d.relToURI(rel),
			Name:     rel,
			MimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(p))),
		})
		return nil
	})
	if err != nil {
		return Page{}, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].URI < all[j].URI })
	return pageSlice(all, d.pageSize, cursor), nil
}

// Read implements Provider. Symlinks are resolved and must stay inside the
// root; escaping paths read as not found.
func (d *Dir) Read(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	rel, ok := d.uriToRel(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}

	abs := filepath.Join(d.root, filepath.FromSlash(rel))
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if !within(real, d.root) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}

	data, err := os.ReadFile(real)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}

	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(real)))
	if mt == "" {
		mt = "application/octet-stream"
	}
	if utf8.Valid(data) {
		return []mcp.ResourceContents{{URI: uri, MimeType: mt, Text: string(data)}}, nil
	}
	return []mcp.ResourceContents{{URI: uri, MimeType: mt, Blob: base64.StdEncoding.EncodeToString(data)}}, nil
}

// Watch blocks watching the tree for changes, invoking onChange with the URI
// of each changed file (an empty URI marks a structural change such as a
// create or remove). It returns when ctx ends. Only one Watch may run per
// Dir at a time.
func (d *Dir) Watch(ctx context.Context, onChange func(uri string)) error {
	if !d.watching.CompareAndSwap(false, true) {
		return fmt.Errorf("directory %s is already being watched", d.root)
	}
	defer d.watching.Store(false)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() {
		// Best-effort watcher close; no actionable error handling path.
		_ = w.Close()
	}()

	// Recursively watch every directory under the root.
	addDirs := func(root string) {
		_ = filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
			if err != nil || !de.IsDir() {
				return nil
			}
			if werr := w.Add(p); werr != nil {
				d.log.Debug("watch add failed", slog.String("dir", p), slog.String("err", werr.Error()))
			}
			return nil
		})
	}
	addDirs(d.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					addDirs(ev.Name)
					onChange("")
					continue
				}
				onChange("")
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				onChange("")
			}
			if ev.Op&(fsnotify.Write|fsnotify.Chmod) != 0 {
				abs, err := filepath.Abs(ev.Name)
				if err != nil || !within(abs, d.root) {
					continue
				}
				rel, err := filepath.Rel(d.root, abs)
				if err != nil {
					continue
				}
				onChange(d.relToURI(filepath.ToSlash(rel)))
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.log.Debug("watch error", slog.String("err", werr.Error()))
		}
	}
}

func (d *Dir) relToURI(rel string) string {
	return d.baseURI + rel
}

func (d *Dir) uriToRel(uri string) (string, bool) {
	if !strings.HasPrefix(uri, d.baseURI) {
		return "", false
	}
	rel := strings.TrimPrefix(uri, d.baseURI)
	if rel == "" || rel == "." || strings.HasPrefix(rel, "../") || strings.Contains(rel, "/../") {
		return "", false
	}
	return rel, true
}

// within reports whether target equals root or descends from it.
func within(target, root string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}
