package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
	"github.com/KaramelBytes/petroloom-cli/internal/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const datasetsDirName = "datasets"

// FileStore keeps each dataset in <root>/datasets/<id>.json. Writes go
// through a temp file and rename, and a mutex serializes access within the
// process.
type FileStore struct {
	root string
	mu   sync.RWMutex
	now  func() time.Time
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root, now: time.Now}
}

// Dir is the directory holding the dataset files.
func (s *FileStore) Dir() string { return filepath.Join(s.root, datasetsDirName) }

func (s *FileStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: dataset id %q", errs.ErrNotFound, id)
	}
	return filepath.Join(s.Dir(), id+".json"), nil
}

func (s *FileStore) read(id string) (*dataset.Dataset, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dataset %s: %w", id, err)
	}
	var ds dataset.Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", id, err)
	}
	return &ds, nil
}

func (s *FileStore) write(ds dataset.Dataset) error {
	path, err := s.path(ds.ID)
	if err != nil {
		return err
	}
	data, err := utils.PrettyJSON(ds)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, data)
}

func (s *FileStore) all() ([]dataset.Dataset, error) {
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	var out []dataset.Dataset
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ds, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		if ds != nil {
			out = append(out, *ds)
		}
	}
	return out, nil
}

func (s *FileStore) List(ctx context.Context, userID, projectID string) ([]dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	out := []dataset.Dataset{}
	for _, ds := range all {
		if matchesUser(ds, userID) && (projectID == "" || ds.ProjectID == projectID) {
			out = append(out, ds)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *FileStore) Save(ctx context.Context, ds dataset.Dataset) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ds.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds = prepare(ds, s.now())
	if err := s.write(ds); err != nil {
		return "", err
	}
	return ds.ID, nil
}

func (s *FileStore) Update(ctx context.Context, id string, p Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, err := s.read(id)
	if err != nil {
		return err
	}
	if ds == nil {
		return fmt.Errorf("update dataset %s: %w", id, errs.ErrNotFound)
	}
	p.apply(ds, s.now())
	return s.write(*ds)
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete dataset %s: %w", id, errs.ErrNotFound)
		}
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) Search(ctx context.Context, userID, term string) ([]dataset.Dataset, error) {
	all, err := s.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	out := []dataset.Dataset{}
	for _, ds := range all {
		if matchesTerm(ds, term) {
			out = append(out, ds)
		}
	}
	return out, nil
}
