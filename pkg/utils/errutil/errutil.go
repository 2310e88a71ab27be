package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
	"github.com/riskcompass/riskcompass/pkg/utils/safe"
)

// Response is the JSON body of an error response
type Response struct {
	Error         string   `json:"error"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// missingFielder is implemented by validation errors naming absent fields
type missingFielder interface {
	MissingFields() []string
}

// Handle logs the error with a message and reports it to Sentry. It returns
// err unchanged.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	logError(ctx, msg, err, 0)
	capture(ctx, err, 0)
	return err
}

// HandleHTTP logs the error and writes a JSON error response. Server errors
// are also reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	if statusCode >= http.StatusInternalServerError {
		logError(ctx, "HTTP error", err, statusCode)
		capture(ctx, err, statusCode)
	} else {
		logging.From(ctx).Warn("HTTP client error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	resp := Response{
		Error:   http.StatusText(statusCode),
		Message: err.Error(),
	}
	var mf missingFielder
	if errors.As(err, &mf) {
		resp.MissingFields = mf.MissingFields()
	}

	body, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		http.Error(w, err.Error(), statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	safe.Write(ctx, w, body)
}

func logError(ctx context.Context, msg string, err error, statusCode int) {
	attrs := []any{"error", err.Error()}
	if statusCode != 0 {
		attrs = append(attrs, "status", statusCode)
	}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs = append(attrs, "values", ge.Values(), "stack", ge.Stacks())
	}
	logging.From(ctx).Error(msg, attrs...)
}

// capture sends err to Sentry. It is a no-op when Sentry is not initialized.
func capture(ctx context.Context, err error, statusCode int) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if statusCode != 0 {
			scope.SetTag("http.status_code", strconv.Itoa(statusCode))
		}
		var ge *goerr.Error
		if errors.As(err, &ge) {
			scope.SetContext("values", sentry.Context(ge.Values()))
		}
		hub.CaptureException(err)
	})
}
