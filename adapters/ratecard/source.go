package ratecard

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
)

// Extension is the rate card file extension
const Extension = ".hcl"

// FileSource serves rate cards from <dir>/<serviceId>.hcl
type FileSource struct {
	dir string
}

// NewFileSource creates a source over dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Dir returns the rate card directory
func (s *FileSource) Dir() string { return s.dir }

func (s *FileSource) Name() string {
	return pricing.SourceFile
}

// Path returns the rate card path for a service
func (s *FileSource) Path(serviceID string) string {
	return filepath.Join(s.dir, serviceID+Extension)
}

func (s *FileSource) ActiveConfig(ctx context.Context, serviceID string) (*pricing.Document, error) {
	path := s.Path(serviceID)
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cqerrors.NotFound("rate card", serviceID)
		}
		return nil, cqerrors.Wrap(cqerrors.TypeConfigUnavailable, "read rate card", err).
			WithContext("path", path)
	}

	doc, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	if doc.ServiceID != serviceID {
		return nil, cqerrors.MalformedConfig("rate card " + path + " is for " + doc.ServiceID)
	}
	return doc, nil
}

// Write stores doc as the service's rate card
func (s *FileSource) Write(doc *pricing.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return eris.Wrapf(err, "ratecard: create %s", s.dir)
	}
	if err := os.WriteFile(s.Path(doc.ServiceID), data, 0644); err != nil {
		return eris.Wrapf(err, "ratecard: write %s", doc.ServiceID)
	}
	return nil
}

// List returns the service ids that have a rate card
func (s *FileSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ratecard: list %s", s.dir)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), Extension))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileSource) Healthcheck(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return cqerrors.Wrap(cqerrors.TypeConfigUnavailable, "rate card directory", err)
	}
	if !info.IsDir() {
		return cqerrors.New(cqerrors.TypeConfigUnavailable, s.dir+" is not a directory")
	}
	return nil
}
