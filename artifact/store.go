// Package artifact persists the best model of each kind and streams it back for download.
package artifact

import (
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/automl/automl"
	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/pkg/errors"
)

// Store keeps one gob file per kind in a directory.
type Store struct {
	dir string
}

// NewStore returns a store writing into dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file of kind, e.g. best_model_regression.gob.
func (s *Store) Path(kind automl.Kind) string {
	return filepath.Join(s.dir, "best_model_"+kind.String()+".gob")
}

// FileName returns the base name of the file of kind.
func (s *Store) FileName(kind automl.Kind) string {
	return filepath.Base(s.Path(kind))
}

// Save replaces the stored artifact of a.Kind.
func (s *Store) Save(a *automl.Artifact) error {
	if a == nil {
		return errors.NewValueError("artifact.Save", "artifact is nil")
	}
	if _, err := automl.ParseKind(a.Kind.String()); err != nil {
		return err
	}
	return model.SaveModel(a, s.Path(a.Kind))
}

// Remove deletes the artifact of kind. A missing file is not an error.
func (s *Store) Remove(kind automl.Kind) error {
	path := s.Path(kind)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "automl: failed to remove %s", path)
	}
	return nil
}

// Exists reports whether an artifact of kind has been saved.
func (s *Store) Exists(kind automl.Kind) bool {
	info, err := os.Stat(s.Path(kind))
	return err == nil && !info.IsDir()
}

// Open returns the raw bytes of the artifact of kind and their size.
func (s *Store) Open(kind automl.Kind) (io.ReadCloser, int64, error) {
	path := s.Path(kind)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.NewArtifactNotFoundError(kind.String(), path)
		}
		return nil, 0, errors.Wrapf(err, "automl: failed to open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(err, "automl: failed to stat %s", path)
	}
	return f, info.Size(), nil
}

// Load decodes the artifact of kind.
func (s *Store) Load(kind automl.Kind) (*automl.Artifact, error) {
	rc, _, err := s.Open(kind)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var a automl.Artifact
	if err := model.LoadModelFromReader(&a, rc); err != nil {
		return nil, errors.Wrapf(err, "automl: failed to decode %s", s.Path(kind))
	}
	return &a, nil
}

// WeightsJSON returns the estimator weights of the artifact of kind as JSON.
func (s *Store) WeightsJSON(kind automl.Kind) ([]byte, error) {
	a, err := s.Load(kind)
	if err != nil {
		return nil, err
	}
	if a.Weights == nil {
		return nil, errors.NewValueError("artifact.WeightsJSON", "artifact has no weights")
	}
	w := a.Weights.Clone()
	w.Features = a.FeatureNames()
	return w.ToJSON()
}
