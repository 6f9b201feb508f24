package objectclient

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/policyrag/internal/core"
	"github.com/markdave123-py/policyrag/internal/models"
)

var _ core.DocumentSource = (*DirSource)(nil)

// DirSource reads PDFs from a local directory tree.
type DirSource struct {
	root string
}

func NewDirSource(root string) (*DirSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: PDF_DIR %q: %v", core.ErrConfiguration, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: PDF_DIR not found: %s", core.ErrConfiguration, abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: PDF_DIR is not a directory: %s", core.ErrConfiguration, abs)
	}
	return &DirSource{root: abs}, nil
}

func (s *DirSource) Root() string { return s.root }

// List walks the tree in lexical order and returns slash-separated paths of
// *.pdf files relative to the root.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isPDF(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}
	return names, nil
}

func (s *DirSource) Read(ctx context.Context, name string) (models.Document, error) {
	path := filepath.Join(s.root, filepath.FromSlash(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", name, err)
	}
	return models.Document{Name: name, Path: path, Data: data}, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
