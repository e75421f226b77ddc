package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/YuminosukeSato/automl/artifact"
	"github.com/YuminosukeSato/automl/auth"
	"github.com/YuminosukeSato/automl/automl"
	"github.com/YuminosukeSato/automl/dataset"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/YuminosukeSato/automl/pkg/log"
	"github.com/YuminosukeSato/automl/training"
)

type failingSearcher struct{ err error }

func (f failingSearcher) Search(context.Context, *training.Request) (*automl.Result, error) {
	return nil, f.err
}

func housingCSV(n int) string {
	var b strings.Builder
	b.WriteString("id,rooms,age,city,price\n")
	for i := 0; i < n; i++ {
		rooms := i%5 + 1
		age := (i * 3) % 17
		city := []string{"osaka", "tokyo"}[i%2]
		price := 50*rooms - 2*age + 100
		fmt.Fprintf(&b, "%d,%d,%d,%s,%d\n", i, rooms, age, city, price)
	}
	return b.String()
}

type fixture struct {
	c      *Coordinator
	dir    string
	logger *log.TestLogger
}

func newFixture(t *testing.T, searcher automl.Searcher) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	if searcher == nil {
		searcher = automl.NewEngine(automl.WithParallel(false), automl.WithLogger(logger))
	}
	c, err := New(Config{
		Credentials: auth.NewFileStore(filepath.Join(dir, "credentials.gob"), bcrypt.MinCost),
		Searcher:    searcher,
		Artifacts:   artifact.NewStore(dir),
		DatasetPath: filepath.Join(dir, "datasets", "dataset.csv"),
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{c: c, dir: dir, logger: logger}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if err := f.c.SignIn("alice", "secret"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if err := f.c.Login("alice", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

func (f *fixture) upload(t *testing.T, rows int) Summary {
	t.Helper()
	s, err := f.c.UploadDataset("houses.csv", strings.NewReader(housingCSV(rows)))
	if err != nil {
		t.Fatalf("UploadDataset() error = %v", err)
	}
	return s
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestSignInAndLogin(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.c.SignIn("alice", "secret"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	err := f.c.SignIn("alice", "other")
	var dup *errors.DuplicateUsernameError
	if !errors.As(err, &dup) {
		t.Fatalf("second SignIn() error = %v, want DuplicateUsernameError", err)
	}

	err = f.c.Login("alice", "wrong")
	var authErr *errors.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login(wrong) error = %v, want AuthenticationError", err)
	}
	if _, ok := f.c.LoggedIn(); ok {
		t.Error("failed login must not start a session")
	}

	if err := f.c.Login("alice", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user, ok := f.c.LoggedIn(); !ok || user != "alice" {
		t.Errorf("LoggedIn() = %q, %v", user, ok)
	}

	f.c.Logout()
	if _, ok := f.c.LoggedIn(); ok {
		t.Error("still logged in after Logout")
	}
	if !f.logger.ContainsMessage("User logged in") || !f.logger.ContainsField(log.UserKey, "alice") {
		t.Error("login was not logged")
	}
}

func TestSignInRejectsEmptyInput(t *testing.T) {
	f := newFixture(t, nil)
	err := f.c.SignIn("", "")
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("SignIn(\"\", \"\") error = %v, want ValidationError", err)
	}
}

func TestActionsRequireLogin(t *testing.T) {
	f := newFixture(t, nil)

	checks := map[string]error{}
	_, checks["upload"] = f.c.UploadDataset("a.csv", strings.NewReader("a\n1\n"))
	_, checks["dataset"] = f.c.Dataset()
	_, checks["profile"] = f.c.Profile()
	_, checks["ignore"] = f.c.IgnoreColumns([]string{"a"})
	_, checks["restore"] = f.c.RestoreColumn("a")
	_, _, checks["preview"] = f.c.TrainingPreview(0.7)
	_, checks["train"] = f.c.RunTraining(context.Background(), "a", 0.7)
	_, checks["result"] = f.c.LastResult()
	_, checks["download"] = f.c.DownloadModel(automl.Regression)

	for name, err := range checks {
		var authErr *errors.AuthenticationError
		if !errors.As(err, &authErr) {
			t.Errorf("%s: error = %v, want AuthenticationError", name, err)
		}
	}
}

func TestActionsRequireDataset(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	checks := map[string]error{}
	_, checks["dataset"] = f.c.Dataset()
	_, checks["profile"] = f.c.Profile()
	checks["histogram"] = f.c.ProfileHistogram("a", io.Discard)
	_, checks["ignore"] = f.c.IgnoreColumns([]string{"a"})
	_, checks["restore"] = f.c.RestoreColumn("a")
	_, checks["train"] = f.c.RunTraining(context.Background(), "a", 0.7)

	for name, err := range checks {
		var noData *errors.NoDatasetError
		if !errors.As(err, &noData) {
			t.Errorf("%s: error = %v, want NoDatasetError", name, err)
		}
	}
}

func TestUploadPersistsAndResetsRemoved(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.upload(t, 10)

	if _, err := f.c.IgnoreColumns([]string{"id"}); err != nil {
		t.Fatalf("IgnoreColumns() error = %v", err)
	}

	s := f.upload(t, 12)
	if s.FileName != "houses.csv" || s.Rows != 12 || s.Columns != 5 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Removed) != 0 || s.State != dataset.StateLoaded.String() {
		t.Errorf("upload must reset removed list, got %v (%s)", s.Removed, s.State)
	}
	if len(s.Head) != previewRows {
		t.Errorf("len(Head) = %d, want %d", len(s.Head), previewRows)
	}

	onDisk, err := dataset.LoadFile(filepath.Join(f.dir, "datasets", "dataset.csv"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if onDisk.NumRows() != 12 {
		t.Errorf("persisted rows = %d, want 12", onDisk.NumRows())
	}
}

func TestUploadEmptyFile(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	_, err := f.c.UploadDataset("../empty.csv", strings.NewReader(""))
	var empty *errors.EmptyDatasetError
	if !errors.As(err, &empty) {
		t.Fatalf("error = %v, want EmptyDatasetError", err)
	}
	if empty.Source != "empty.csv" {
		t.Errorf("Source = %q, want empty.csv", empty.Source)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "datasets", "dataset.csv")); !os.IsNotExist(err) {
		t.Error("failed upload must not write the dataset file")
	}
}

func TestDatasetRestoredAtStartup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datasets", "dataset.csv")
	tbl, err := dataset.ReadCSV(strings.NewReader(housingCSV(8)))
	if err != nil {
		t.Fatal(err)
	}
	if err := dataset.SaveFile(path, tbl); err != nil {
		t.Fatal(err)
	}

	logger, _ := log.NewTestLogger(log.LevelInfo)
	c, err := New(Config{
		Credentials: auth.NewFileStore(filepath.Join(dir, "credentials.gob"), bcrypt.MinCost),
		Searcher:    failingSearcher{},
		Artifacts:   artifact.NewStore(dir),
		DatasetPath: path,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.SignIn("bob", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := c.Login("bob", "pw"); err != nil {
		t.Fatal(err)
	}

	s, err := c.Dataset()
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if s.FileName != DefaultFileName || s.Rows != 8 || len(s.Removed) != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestIgnoreAndRestore(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.upload(t, 10)

	res, err := f.c.IgnoreColumns([]string{"id", "city"})
	if err != nil {
		t.Fatalf("IgnoreColumns() error = %v", err)
	}
	if res.Count != 2 || strings.Join(res.Removed, ",") != "id,city" {
		t.Errorf("result = %+v", res)
	}

	_, err = f.c.IgnoreColumns([]string{"id"})
	var unknown *errors.UnknownColumnError
	if !errors.As(err, &unknown) {
		t.Fatalf("re-ignore error = %v, want UnknownColumnError", err)
	}

	s, err := f.c.RestoreColumn("id")
	if err != nil {
		t.Fatalf("RestoreColumn() error = %v", err)
	}
	if got := strings.Join(s.Active, ","); got != "rooms,age,price,id" {
		t.Errorf("active = %s", got)
	}
	if strings.Join(s.Removed, ",") != "city" || s.State != dataset.StatePartitioned.String() {
		t.Errorf("summary = %+v", s)
	}

	if !f.logger.ContainsMessage("Columns ignored") || !f.logger.ContainsField(log.FeaturesRestoredKey, "id") {
		t.Error("feature-set changes were not logged")
	}
	if f.logger.CountLevel("WARN") == 0 {
		t.Error("rejected ignore should log a warning")
	}
}

func TestProfileAndHistogram(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.upload(t, 20)
	if _, err := f.c.IgnoreColumns([]string{"id"}); err != nil {
		t.Fatal(err)
	}

	rep, err := f.c.Profile()
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if rep.Columns != 4 || rep.Profile("id") != nil {
		t.Errorf("profile must cover the active table only: %d columns", rep.Columns)
	}

	var buf bytes.Buffer
	if err := f.c.ProfileHistogram("price", &buf); err != nil {
		t.Fatalf("ProfileHistogram() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("histogram is not a PNG")
	}
}

func TestTrainingPreview(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	train, test, err := f.c.TrainingPreview(0.75)
	if err != nil {
		t.Fatalf("TrainingPreview() error = %v", err)
	}
	if train != 0.75 || test != 0.25 {
		t.Errorf("got %v/%v", train, test)
	}

	_, _, err = f.c.TrainingPreview(1)
	var split *errors.InvalidSplitError
	if !errors.As(err, &split) {
		t.Errorf("error = %v, want InvalidSplitError", err)
	}
}

func TestRunTrainingPersistsBestModels(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.upload(t, 40)
	if _, err := f.c.IgnoreColumns([]string{"id"}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.c.LastResult(); err == nil {
		t.Error("LastResult() before training should fail")
	}

	res, err := f.c.RunTraining(context.Background(), "price", 0.7)
	if err != nil {
		t.Fatalf("RunTraining() error = %v", err)
	}
	if strings.Join(res.Ignored, ",") != "id" {
		t.Errorf("Ignored = %v", res.Ignored)
	}
	for _, name := range res.Features {
		if name == "id" || name == "price" {
			t.Errorf("feature list contains %q", name)
		}
	}

	last, err := f.c.LastResult()
	if err != nil || last.RunID != res.RunID {
		t.Errorf("LastResult() = %v, %v", last, err)
	}

	for _, a := range res.Artifacts() {
		d, err := f.c.DownloadModel(a.Kind)
		if err != nil {
			t.Fatalf("DownloadModel(%s) error = %v", a.Kind, err)
		}
		data, err := io.ReadAll(d.Body)
		d.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if int64(len(data)) != d.Size || d.Name != "best_model_"+a.Kind.String()+".gob" {
			t.Errorf("download = %s (%d bytes, size %d)", d.Name, len(data), d.Size)
		}

		js, err := f.c.ModelWeights(a.Kind)
		if err != nil {
			t.Fatalf("ModelWeights(%s) error = %v", a.Kind, err)
		}
		if !bytes.Contains(js, []byte("rooms")) {
			t.Errorf("weights JSON lacks feature names: %s", js)
		}
	}
	if res.Best(automl.Regression) == nil {
		t.Error("numeric target should produce a regression model")
	}
	if !f.logger.ContainsField(log.RunIDKey, res.RunID) {
		t.Error("training run was not logged")
	}
}

func TestRetrainingRemovesModelsOfSkippedKinds(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.upload(t, 40)
	if _, err := f.c.IgnoreColumns([]string{"id"}); err != nil {
		t.Fatal(err)
	}
	models := artifact.NewStore(f.dir)

	first, err := f.c.RunTraining(context.Background(), "price", 0.7)
	if err != nil {
		t.Fatalf("RunTraining(price) error = %v", err)
	}
	if first.Best(automl.Regression) == nil || !models.Exists(automl.Regression) {
		t.Fatal("price should produce a saved regression model")
	}

	second, err := f.c.RunTraining(context.Background(), "city", 0.7)
	if err != nil {
		t.Fatalf("RunTraining(city) error = %v", err)
	}
	if kr := second.Kind(automl.Regression); kr == nil || !kr.Skipped {
		t.Fatalf("regression should be skipped for a text target: %+v", kr)
	}

	var missing *errors.ArtifactNotFoundError
	if _, err := f.c.DownloadModel(automl.Regression); !errors.As(err, &missing) {
		t.Errorf("DownloadModel(regression) error = %v, want ArtifactNotFoundError", err)
	}
	if _, err := f.c.ModelWeights(automl.Regression); !errors.As(err, &missing) {
		t.Errorf("ModelWeights(regression) error = %v, want ArtifactNotFoundError", err)
	}
	saved, err := models.Load(automl.Classification)
	if err != nil {
		t.Fatalf("Load(classification) error = %v", err)
	}
	if saved.RunID != second.RunID || saved.Target != "city" {
		t.Errorf("classification artifact from run %s target %q, want %s city", saved.RunID, saved.Target, second.RunID)
	}

	f.upload(t, 20)
	for _, kind := range automl.Kinds {
		if models.Exists(kind) {
			t.Errorf("%s model survived a new upload", kind)
		}
	}
	if _, err := f.c.LastResult(); err == nil {
		t.Error("LastResult() should be cleared by a new upload")
	}
}

func TestRunTrainingRejectsIgnoredTarget(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)
	f.upload(t, 10)
	if _, err := f.c.IgnoreColumns([]string{"price"}); err != nil {
		t.Fatal(err)
	}

	_, err := f.c.RunTraining(context.Background(), "price", 0.7)
	var target *errors.InvalidTargetError
	if !errors.As(err, &target) {
		t.Fatalf("error = %v, want InvalidTargetError", err)
	}
}

func TestRunTrainingSearchFailure(t *testing.T) {
	boom := errors.New("search exploded")
	f := newFixture(t, failingSearcher{err: boom})
	f.login(t)
	f.upload(t, 10)

	if _, err := f.c.RunTraining(context.Background(), "price", 0.7); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if _, err := f.c.LastResult(); err == nil {
		t.Error("failed run must not be recorded")
	}
}

func TestDownloadBeforeTraining(t *testing.T) {
	f := newFixture(t, nil)
	f.login(t)

	_, err := f.c.DownloadModel(automl.Classification)
	var missing *errors.ArtifactNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want ArtifactNotFoundError", err)
	}

	if _, err := f.c.DownloadModel(automl.Kind("clustering")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
