package server

import (
	"encoding/csv"
	"encoding/json"
	"net/http"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeSuccessResponse(w http.ResponseWriter, data any) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message, errType string) {
	body := map[string]any{
		"error":  message,
		"status": "error",
	}
	if errType != "" {
		body["type"] = errType
	}
	writeJSONResponse(w, statusCode, body)
}

// writeError maps err to a status code and writes it.
func writeError(w http.ResponseWriter, err error) {
	writeErrorResponse(w, statusFor(err), err.Error(), errors.TypeName(err))
}

func statusFor(err error) int {
	var (
		authErr      *errors.AuthenticationError
		noData       *errors.NoDatasetError
		notFound     *errors.ArtifactNotFoundError
		dup          *errors.DuplicateUsernameError
		empty        *errors.EmptyDatasetError
		unknown      *errors.UnknownColumnError
		target       *errors.InvalidTargetError
		split        *errors.InvalidSplitError
		insufficient *errors.InsufficientFeaturesError
		validation   *errors.ValidationError
		value        *errors.ValueError
		dim          *errors.DimensionError
		parse        *csv.ParseError
		tooLarge     *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &noData), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &dup):
		return http.StatusConflict
	case errors.As(err, &empty), errors.As(err, &unknown), errors.As(err, &target),
		errors.As(err, &split), errors.As(err, &insufficient), errors.As(err, &validation),
		errors.As(err, &value), errors.As(err, &dim), errors.As(err, &parse):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewValidationError("body", "invalid JSON request body", err.Error())
	}
	return nil
}
