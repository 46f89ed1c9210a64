package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// fileCatalog mirrors the YAML layout of a catalog file:
//
//	plugins:
//	  - id: 6f1c...
//	    slug: reports
//	    name: Reports
//	    price: {amount: 900, currency: USD}
//	    price_id: pri_01h...
//	    active: true
type fileCatalog struct {
	Plugins []filePlugin `yaml:"plugins"`
}

type filePlugin struct {
	ID       string        `yaml:"id"`
	Slug     string        `yaml:"slug"`
	Name     string        `yaml:"name"`
	Category string        `yaml:"category"`
	Price    fileMoney     `yaml:"price"`
	PriceID  string        `yaml:"price_id"`
	Features []fileFeature `yaml:"features"`
	Active   *bool         `yaml:"active"` // defaults to true when omitted
	Featured bool          `yaml:"featured"`
}

type fileMoney struct {
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
}

type fileFeature struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Included    bool       `yaml:"included"`
	ExtraPrice  *fileMoney `yaml:"extra_price"`
}

type fileSource struct {
	fsys fs.FS
	path string
}

// NewFileSource creates a source reading a YAML catalog from the local filesystem.
func NewFileSource(path string) Source {
	return &fileSource{fsys: os.DirFS("."), path: path}
}

// NewFSSource creates a source reading a YAML catalog from fsys, e.g. an embed.FS.
func NewFSSource(fsys fs.FS, path string) Source {
	return &fileSource{fsys: fsys, path: path}
}

// Load reads and decodes the catalog file on every call.
func (s *fileSource) Load(ctx context.Context) ([]Plugin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(ErrCatalogFileNotFound, err)
		}
		return nil, fmt.Errorf("read catalog file %q: %w", s.path, err)
	}

	return ParseYAML(data)
}

func (s *fileSource) read() ([]byte, error) {
	// os.DirFS rejects absolute paths, so read them directly.
	if strings.HasPrefix(s.path, "/") {
		return os.ReadFile(s.path)
	}
	return fs.ReadFile(s.fsys, strings.TrimPrefix(s.path, "./"))
}

// ParseYAML decodes a YAML catalog document into plugins.
func ParseYAML(data []byte) ([]Plugin, error) {
	var doc fileCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	plugins := make([]Plugin, 0, len(doc.Plugins))
	for i, fp := range doc.Plugins {
		id, err := uuid.Parse(fp.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: plugins[%d] has invalid id %q: %w", ErrInvalidCatalog, i, fp.ID, err)
		}

		p := Plugin{
			ID:       id,
			Slug:     fp.Slug,
			Name:     fp.Name,
			Category: fp.Category,
			Price:    Money(fp.Price),
			PriceID:  fp.PriceID,
			Active:   fp.Active == nil || *fp.Active,
			Featured: fp.Featured,
		}
		for _, ff := range fp.Features {
			f := Feature{
				ID:          ff.ID,
				Name:        ff.Name,
				Description: ff.Description,
				Included:    ff.Included,
			}
			if ff.ExtraPrice != nil {
				extra := Money(*ff.ExtraPrice)
				f.ExtraPrice = &extra
			}
			p.Features = append(p.Features, f)
		}
		plugins = append(plugins, p)
	}

	return plugins, nil
}
