package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a delimited table with a header row. Values are kept as raw
// strings. Rows with a different field count than the header are rejected.
func ReadCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = 0
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "automl: failed to parse CSV")
	}
	if len(records) == 0 || (len(records[0]) == 1 && records[0][0] == "") {
		return nil, errors.NewEmptyDatasetError("csv")
	}

	header := records[0]
	rows := records[1:]
	columns := make([]Column, len(header))
	for j, name := range header {
		values := make([]string, len(rows))
		for i, rec := range rows {
			values[i] = rec[j]
		}
		columns[j] = Column{Name: name, Values: values}
	}
	return NewTable(columns...)
}

// WriteCSV writes the header and rows of t in column order.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return errors.Wrap(err, "automl: failed to write CSV header")
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return errors.Wrapf(err, "automl: failed to write CSV row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "automl: failed to flush CSV")
}

// LoadFile reads a CSV table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "automl: failed to open dataset %s", path)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		var empty *errors.EmptyDatasetError
		if errors.As(err, &empty) {
			return nil, errors.NewEmptyDatasetError(filepath.Base(path))
		}
		return nil, err
	}
	return t, nil
}

// SaveFile writes t to path, creating parent directories. The file is
// replaced atomically.
func SaveFile(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "automl: failed to create directory for %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".dataset-*.csv")
	if err != nil {
		return errors.Wrapf(err, "automl: failed to create temp file for %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "automl: failed to close %s", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "automl: failed to save dataset %s", path)
}
