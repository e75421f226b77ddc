// Package session orchestrates the user-facing actions of one AutoML session:
// sign-in and login, dataset upload, profiling, feature selection, training and
// model download.
package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/YuminosukeSato/automl/auth"
	"github.com/YuminosukeSato/automl/automl"
	"github.com/YuminosukeSato/automl/dataset"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/YuminosukeSato/automl/pkg/log"
	"github.com/YuminosukeSato/automl/profiling"
	"github.com/YuminosukeSato/automl/training"
)

// DefaultFileName is the file name reported for a dataset restored from disk at startup.
const DefaultFileName = "dataset.csv"

// previewRows is the number of leading rows returned in a dataset summary.
const previewRows = 5

// ArtifactStore persists and serves the best model of each kind.
type ArtifactStore interface {
	Save(a *automl.Artifact) error
	Remove(kind automl.Kind) error
	Open(kind automl.Kind) (io.ReadCloser, int64, error)
	FileName(kind automl.Kind) string
	WeightsJSON(kind automl.Kind) ([]byte, error)
}

// Config wires the collaborators of a Coordinator.
type Config struct {
	Credentials auth.Credentials
	Searcher    automl.Searcher
	Artifacts   ArtifactStore
	Profiler    *profiling.Profiler
	DatasetPath string
	Logger      log.Logger
}

// Summary describes the loaded dataset.
type Summary struct {
	FileName string     `json:"file_name"`
	Rows     int        `json:"rows"`
	Columns  int        `json:"columns"`
	Active   []string   `json:"active"`
	Removed  []string   `json:"removed"`
	Original []string   `json:"original"`
	State    string     `json:"state"`
	Head     [][]string `json:"head"`
}

// Download is an open model artifact.
type Download struct {
	Name string
	Size int64
	Body io.ReadCloser
}

// Coordinator serialises every action behind one mutex.
type Coordinator struct {
	mu sync.Mutex

	creds       auth.Credentials
	store       *dataset.Store
	controller  *dataset.Controller
	profiler    *profiling.Profiler
	searcher    automl.Searcher
	artifacts   ArtifactStore
	datasetPath string
	logger      log.Logger

	user       string
	fileName   string
	lastResult *automl.Result
}

// New returns a coordinator. If the dataset file already exists it is loaded.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Credentials == nil || cfg.Searcher == nil || cfg.Artifacts == nil {
		return nil, errors.NewValueError("session.New", "credentials, searcher and artifacts are required")
	}
	if cfg.DatasetPath == "" {
		return nil, errors.NewValueError("session.New", "dataset path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("session")
	}
	profiler := cfg.Profiler
	if profiler == nil {
		profiler = profiling.New()
	}

	store := dataset.NewStore()
	c := &Coordinator{
		creds:       cfg.Credentials,
		store:       store,
		controller:  dataset.NewController(store),
		profiler:    profiler,
		searcher:    cfg.Searcher,
		artifacts:   cfg.Artifacts,
		datasetPath: cfg.DatasetPath,
		logger:      logger,
	}

	if err := c.restore(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coordinator) restore() error {
	if _, err := os.Stat(c.datasetPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "automl: failed to stat %s", c.datasetPath)
	}
	t, err := dataset.LoadFile(c.datasetPath)
	if err != nil {
		return err
	}
	if err := c.store.Load(t); err != nil {
		return err
	}
	c.fileName = DefaultFileName
	c.logger.Info("Dataset restored",
		log.DatasetNameKey, c.fileName,
		log.DatasetRowsKey, t.NumRows(),
		log.DatasetColumnsKey, t.NumColumns(),
	)
	return nil
}

// SignIn registers a new user.
func (c *Coordinator) SignIn(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.creds.Register(username, password)
	if err != nil {
		c.fail("Sign-in failed", err, log.UserKey, username)
		return err
	}
	if !ok {
		err := errors.NewDuplicateUsernameError(username)
		c.fail("Sign-in failed", err, log.UserKey, username)
		return err
	}
	c.logger.Info("User registered", log.UserKey, username)
	return nil
}

// Login verifies the credentials and starts the session.
func (c *Coordinator) Login(username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok, err := c.creds.Verify(username, password)
	if err != nil {
		c.fail("Login failed", err, log.UserKey, username)
		return err
	}
	if !ok {
		err := errors.NewAuthenticationError(username, "invalid username or password")
		c.fail("Login failed", err, log.UserKey, username)
		return err
	}
	c.user = username
	c.logger.Info("User logged in", log.UserKey, username)
	return nil
}

// Logout ends the session. The loaded dataset is kept.
func (c *Coordinator) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != "" {
		c.logger.Info("User logged out", log.UserKey, c.user)
	}
	c.user = ""
}

// LoggedIn returns the current user and whether someone is logged in.
func (c *Coordinator) LoggedIn() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user, c.user != ""
}

// UploadDataset parses r as CSV, writes it to the dataset file and loads it.
// Any previous removed list, training result and saved models are discarded.
func (c *Coordinator) UploadDataset(name string, r io.Reader) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLogin("upload"); err != nil {
		return Summary{}, err
	}

	name = filepath.Base(name)
	t, err := dataset.ReadCSV(r)
	if err != nil {
		var empty *errors.EmptyDatasetError
		if errors.As(err, &empty) {
			err = errors.NewEmptyDatasetError(name)
		}
		c.fail("Upload failed", err, log.DatasetNameKey, name)
		return Summary{}, err
	}
	if err := dataset.SaveFile(c.datasetPath, t); err != nil {
		c.fail("Upload failed", err, log.DatasetNameKey, name)
		return Summary{}, err
	}
	if err := c.store.Load(t); err != nil {
		c.fail("Upload failed", err, log.DatasetNameKey, name)
		return Summary{}, err
	}
	c.fileName = name
	c.lastResult = nil
	if err := c.clearArtifacts(automl.Kinds...); err != nil {
		c.fail("Upload failed", err, log.DatasetNameKey, name)
		return Summary{}, err
	}

	c.logger.Info("Dataset uploaded",
		log.OperationKey, log.OperationUpload,
		log.DatasetNameKey, name,
		log.DatasetRowsKey, t.NumRows(),
		log.DatasetColumnsKey, t.NumColumns(),
	)
	return c.summary(), nil
}

// Dataset returns a summary of the loaded dataset.
func (c *Coordinator) Dataset() (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireDataset("dataset"); err != nil {
		return Summary{}, err
	}
	return c.summary(), nil
}

// Profile describes the active table.
func (c *Coordinator) Profile() (*profiling.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireDataset("profile"); err != nil {
		return nil, err
	}
	return c.profiler.Profile(c.store.Active())
}

// ProfileHistogram writes a PNG histogram of an active numeric column to w.
func (c *Coordinator) ProfileHistogram(column string, w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireDataset("histogram"); err != nil {
		return err
	}
	return c.profiler.Histogram(c.store.Active(), column, c.profiler.Bins, w)
}

// IgnoreColumns moves names out of the active table.
func (c *Coordinator) IgnoreColumns(names []string) (dataset.RemovalResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireDataset("ignore"); err != nil {
		return dataset.RemovalResult{}, err
	}

	res, err := c.controller.Ignore(names...)
	if err != nil {
		c.fail("Ignore failed", err, log.OperationKey, log.OperationIgnore, log.FeaturesIgnoredKey, names)
		return dataset.RemovalResult{}, err
	}
	c.logger.Info("Columns ignored",
		log.OperationKey, log.OperationIgnore,
		log.FeaturesIgnoredKey, names,
		log.FeaturesRemovedKey, res.Removed,
		log.DatasetColumnsKey, len(res.Active),
	)
	return res, nil
}

// RestoreColumn moves name back into the active table.
func (c *Coordinator) RestoreColumn(name string) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireDataset("restore"); err != nil {
		return Summary{}, err
	}

	if err := c.controller.Restore(name); err != nil {
		c.fail("Restore failed", err, log.OperationKey, log.OperationRestore, log.FeaturesRestoredKey, name)
		return Summary{}, err
	}
	c.logger.Info("Column restored",
		log.OperationKey, log.OperationRestore,
		log.FeaturesRestoredKey, name,
		log.FeaturesRemovedKey, c.store.Removed(),
		log.DatasetColumnsKey, c.store.Active().NumColumns(),
	)
	return c.summary(), nil
}

// TrainingPreview returns the train and test fractions for trainFraction.
func (c *Coordinator) TrainingPreview(trainFraction float64) (train, test float64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLogin("preview"); err != nil {
		return 0, 0, err
	}
	return training.SplitFractions(trainFraction)
}

// RunTraining builds a request from the current feature set, runs the model
// search and persists the best model of every kind that produced one. Saved
// models of kinds that produced nothing are removed.
func (c *Coordinator) RunTraining(ctx context.Context, target string, trainFraction float64) (*automl.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireDataset("train"); err != nil {
		return nil, err
	}

	start := time.Now()
	req, err := training.FromStore(c.store, target, trainFraction)
	if err != nil {
		c.fail("Training rejected", err, log.OperationKey, log.OperationTrain, log.TargetKey, target)
		return nil, err
	}

	res, err := c.searcher.Search(ctx, req)
	if err != nil {
		c.fail("Training failed", err, log.OperationKey, log.OperationTrain, log.TargetKey, target)
		return nil, err
	}

	var stale []automl.Kind
	for _, kr := range res.Kinds {
		if kr.Best == nil {
			stale = append(stale, kr.Kind)
			continue
		}
		if err := c.artifacts.Save(kr.Best); err != nil {
			c.fail("Saving model failed", err, log.RunIDKey, res.RunID, log.ModelKindKey, kr.Kind.String())
			return nil, err
		}
	}
	if err := c.clearArtifacts(stale...); err != nil {
		c.fail("Removing stale model failed", err, log.RunIDKey, res.RunID)
		return nil, err
	}
	c.lastResult = res

	c.logger.Info("Training finished",
		log.OperationKey, log.OperationTrain,
		log.RunIDKey, res.RunID,
		log.TargetKey, target,
		log.TrainFractionKey, req.TrainFraction(),
		log.TestFractionKey, req.TestFraction(),
		log.FeaturesRemovedKey, req.IgnoreList(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// LastResult returns the result of the most recent successful training run.
func (c *Coordinator) LastResult() (*automl.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLogin("result"); err != nil {
		return nil, err
	}
	if c.lastResult == nil {
		return nil, errors.NewArtifactNotFoundError("training result", "")
	}
	return c.lastResult, nil
}

// DownloadModel opens the persisted best model of kind. The caller closes Body.
func (c *Coordinator) DownloadModel(kind automl.Kind) (*Download, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLogin("download"); err != nil {
		return nil, err
	}
	if _, err := automl.ParseKind(kind.String()); err != nil {
		return nil, err
	}
	body, size, err := c.artifacts.Open(kind)
	if err != nil {
		c.fail("Download failed", err, log.ModelKindKey, kind.String())
		return nil, err
	}
	return &Download{Name: c.artifacts.FileName(kind), Size: size, Body: body}, nil
}

// ModelWeights returns the weights of the persisted best model of kind as JSON.
func (c *Coordinator) ModelWeights(kind automl.Kind) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireLogin("download"); err != nil {
		return nil, err
	}
	if _, err := automl.ParseKind(kind.String()); err != nil {
		return nil, err
	}
	return c.artifacts.WeightsJSON(kind)
}

func (c *Coordinator) clearArtifacts(kinds ...automl.Kind) error {
	for _, k := range kinds {
		if err := c.artifacts.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) requireLogin(op string) error {
	if c.user == "" {
		return errors.NewAuthenticationError("", op+": login required")
	}
	return nil
}

func (c *Coordinator) requireDataset(op string) error {
	if err := c.requireLogin(op); err != nil {
		return err
	}
	if !c.store.Loaded() {
		return errors.NewNoDatasetError(op)
	}
	return nil
}

func (c *Coordinator) summary() Summary {
	snap := c.store.Snapshot()
	rows, cols := snap.Active.Shape()
	head := make([][]string, 0, previewRows)
	for i := 0; i < rows && i < previewRows; i++ {
		head = append(head, snap.Active.Row(i))
	}
	return Summary{
		FileName: c.fileName,
		Rows:     rows,
		Columns:  cols,
		Active:   snap.Active.Columns(),
		Removed:  snap.Removed,
		Original: snap.Original,
		State:    c.store.State().String(),
		Head:     head,
	}
}

// fail logs err at warn level with its type.
func (c *Coordinator) fail(msg string, err error, fields ...any) {
	args := append([]any{err, log.ErrorTypeKey, errors.TypeName(err)}, fields...)
	if c.user != "" {
		args = append(args, log.UserKey, c.user)
	}
	c.logger.Warn(msg, args...)
}
