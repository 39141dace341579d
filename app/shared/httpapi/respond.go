// Package httpapi holds the HTTP plumbing shared by the module handlers:
// middleware, JSON decoding and the error-code to status mapping.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// maxBodyBytes caps request bodies; bulk participant loads are the largest.
const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code tournamenttypes.ErrorCode) int {
	switch code {
	case tournamenttypes.CodeInvalidArgument:
		return http.StatusBadRequest
	case tournamenttypes.CodePermissionDenied:
		return http.StatusForbidden
	case tournamenttypes.CodeNotFound:
		return http.StatusNotFound
	case tournamenttypes.CodeFailedPrecondition:
		return http.StatusUnprocessableEntity
	case tournamenttypes.CodeRoomFull, tournamenttypes.CodeConflict,
		tournamenttypes.CodeAlreadyAssigned, tournamenttypes.CodeNoFreeGroup2:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes a domain failure with its mapped status.
func WriteError(w http.ResponseWriter, err error) {
	code := tournamenttypes.Code(err)
	msg := err.Error()
	var de *tournamenttypes.DomainError
	if errors.As(err, &de) && de.Message != "" {
		msg = de.Message
	}
	WriteJSON(w, StatusFor(code), ErrorBody{Code: string(code), Message: msg})
}

// WriteResult renders a service call. Infrastructure errors are logged and
// hidden behind a 500.
func WriteResult[S any](ctx context.Context, w http.ResponseWriter, logger *slog.Logger, status int, result results.OperationResult[S, error], err error) {
	if err != nil {
		logger.ErrorContext(ctx, "Request failed",
			observability.ExtractCorrelationID(ctx),
			observability.Error(err),
		)
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Code: "internal", Message: "internal error"})
		return
	}
	if result.Failure != nil {
		WriteError(w, *result.Failure)
		return
	}
	if result.Success == nil {
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Code: "internal", Message: "empty result"})
		return
	}
	WriteJSON(w, status, *result.Success)
}

// Decode reads a JSON body into v. An empty body leaves v untouched.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "invalid request body: %v", err)
	}
	return nil
}

// RequireCaller returns the caller CallerMiddleware resolved, writing a 401
// when there is none.
func RequireCaller(w http.ResponseWriter, r *http.Request) (caller.Caller, bool) {
	c, ok := caller.FromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorBody{Code: "unauthenticated", Message: "no caller on request"})
	}
	return c, ok
}
