package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/usecase"
	"github.com/riskcompass/riskcompass/pkg/utils/errutil"
)

const maxRequestBody = 1 << 20

var errorStatuses = []struct {
	err    error
	status int
}{
	{usecase.ErrValidation, http.StatusBadRequest},
	{usecase.ErrDuplicateProjectName, http.StatusBadRequest},
	{usecase.ErrAlreadyRegistered, http.StatusBadRequest},
	{usecase.ErrCannotRemoveManager, http.StatusBadRequest},
	{usecase.ErrUnauthenticated, http.StatusUnauthorized},
	{usecase.ErrForbidden, http.StatusForbidden},
	{usecase.ErrProjectNotFound, http.StatusNotFound},
	{usecase.ErrOrganizationNotFound, http.StatusNotFound},
	{usecase.ErrUserNotFound, http.StatusNotFound},
	{usecase.ErrRecommendationNotFound, http.StatusNotFound},
	{usecase.ErrNoMitigationStrategy, http.StatusNotFound},
	{usecase.ErrInvalidOrganizationCode, http.StatusNotFound},
	{usecase.ErrApplyInFlight, http.StatusConflict},
	{usecase.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
	{usecase.ErrScoringNotConfigured, http.StatusServiceUnavailable},
}

// statusOf maps a use case error to its HTTP status
func statusOf(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// decodeJSON reads the request body into v. A malformed body is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return goerr.Wrap(usecase.ErrValidation, "request body is empty")
		}
		return goerr.Wrap(usecase.ErrValidation, "invalid request body: "+err.Error())
	}
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}
