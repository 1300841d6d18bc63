// Package docs discovers the documentation tree: Markdown pages and the
// static assets that travel with them.
package docs

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/odadocs/odadoc/internal/docmodel"
)

// Asset is a non-Markdown file under the docs root that the site copies
// through unchanged (images, CSS, downloads).
type Asset struct {
	Path         string
	RelativePath string
}

// Tree is the discovered documentation tree.
type Tree struct {
	Root      string
	Documents []*docmodel.Document
	Assets    []Asset
}

var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".css": true, ".js": true, ".ico": true, ".pdf": true, ".json": true,
	".webp": true,
}

// Discover walks the docs root and loads every Markdown page and asset.
// Hidden files and directories are skipped, as are editor temp files.
func Discover(root string) (*Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve docs root: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("docs root: %w", err)
	}

	tree := &Tree{Root: abs}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != abs {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if isIgnoredFile(name) {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}

		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case ext == ".md" || ext == ".markdown":
			doc, err := docmodel.Load(path, rel)
			if err != nil {
				return fmt.Errorf("parse %s: %w", rel, err)
			}
			tree.Documents = append(tree.Documents, doc)
		case assetExtensions[ext]:
			tree.Assets = append(tree.Assets, Asset{Path: path, RelativePath: filepath.ToSlash(rel)})
		default:
			slog.Debug("Skipping file with unhandled extension", "path", rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Documentation discovered",
		"root", abs,
		"documents", len(tree.Documents),
		"assets", len(tree.Assets))
	return tree, nil
}

// ByRelativePath returns the document with the given docs-root-relative path.
func (t *Tree) ByRelativePath(rel string) *docmodel.Document {
	rel = filepath.ToSlash(rel)
	for _, d := range t.Documents {
		if d.RelativePath == rel {
			return d
		}
	}
	return nil
}

// Sections returns the distinct section names in discovery order.
func (t *Tree) Sections() []string {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, d := range t.Documents {
		if d.Section == "" || seen[d.Section] {
			continue
		}
		seen[d.Section] = true
		out = append(out, d.Section)
	}
	return out
}

func isIgnoredFile(name string) bool {
	if strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".tmp") {
		return true
	}
	if strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#") {
		return true
	}
	return false
}
