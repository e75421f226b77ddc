package server

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/YuminosukeSato/automl/automl"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/YuminosukeSato/automl/pkg/log"
	"github.com/YuminosukeSato/automl/session"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ignoreRequest struct {
	Columns []string `json:"columns"`
}

type restoreRequest struct {
	Column string `json:"column"`
}

type trainRequest struct {
	Target        string   `json:"target"`
	TrainFraction *float64 `json:"train_fraction,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": APIVersion,
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.coord.SignIn(req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, map[string]any{"message": "sign-in successful, you can now log in"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.coord.Login(req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, map[string]any{"message": "login successful", "user": req.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.coord.Logout()
	writeSuccessResponse(w, map[string]any{"message": "logged out"})
}

// handleUpload accepts a multipart form with a "file" field or a raw CSV body
// named by the "name" query parameter.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	name := r.URL.Query().Get("name")
	var body io.Reader = r.Body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, err)
				return
			}
			writeError(w, errors.NewValidationError("file", "multipart field 'file' is required", err.Error()))
			return
		}
		defer file.Close()
		body = file
		if name == "" {
			name = header.Filename
		}
	}
	if name == "" {
		name = session.DefaultFileName
	}

	summary, err := s.coord.UploadDataset(name, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, summary)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	summary, err := s.coord.Dataset()
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, summary)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	report, err := s.coord.Profile()
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, report)
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	column := mux.Vars(r)["column"]
	var buf bytes.Buffer
	if err := s.coord.ProfileHistogram(column, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("Histogram write failed", err, "column", column)
	}
}

func (s *Server) handleIgnore(w http.ResponseWriter, r *http.Request) {
	var req ignoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.coord.IgnoreColumns(req.Columns)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, map[string]any{
		"count":   res.Count,
		"removed": res.Removed,
		"active":  res.Active,
	})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	summary, err := s.coord.RestoreColumn(req.Column)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, summary)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	frac := s.opts.DefaultTrainFraction
	if raw := r.URL.Query().Get("train_fraction"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, errors.NewValidationError("train_fraction", "must be a number", raw))
			return
		}
		frac = v
	}
	train, test, err := s.coord.TrainingPreview(frac)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, map[string]any{
		"train_fraction": train,
		"test_fraction":  test,
		"display":        strconv.FormatFloat(test, 'f', 2, 64),
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	frac := s.opts.DefaultTrainFraction
	if req.TrainFraction != nil {
		frac = *req.TrainFraction
	}
	res, err := s.coord.RunTraining(r.Context(), req.Target, frac)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, res)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.coord.LastResult()
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccessResponse(w, res)
}

// handleDownload streams the gob artifact, or its weights as JSON with ?format=json.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	kind, err := automl.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		data, err := s.coord.ModelWeights(kind)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			s.logger.Warn("Weights write failed", err, log.ModelKindKey, kind.String())
		}
		return
	}

	d, err := s.coord.DownloadModel(kind)
	if err != nil {
		writeError(w, err)
		return
	}
	defer d.Body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Name}))
	w.Header().Set("Content-Length", strconv.FormatInt(d.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, d.Body); err != nil {
		s.logger.Warn("Download interrupted", err, "file", d.Name)
	}
}
