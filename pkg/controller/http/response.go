package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
	"github.com/secmon-lab/actiontracker/pkg/utils/errutil"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
)

// maxRequestBody bounds JSON bodies. It leaves room for a 5 MiB inline
// upload after base64 expansion.
const maxRequestBody = 8 << 20

type errorResponse struct {
	Error    string   `json:"error"`
	Allowed  []string `json:"allowed,omitempty"`
	Required []string `json:"required,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

type okResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(ctx).Warn("failed to write response", "error", err)
	}
}

var errorStatus = []struct {
	err    error
	status int
}{
	{usecase.ErrValidation, http.StatusBadRequest},
	{usecase.ErrUnauthenticated, http.StatusUnauthorized},
	{usecase.ErrForbidden, http.StatusForbidden},
	{usecase.ErrActionNotFound, http.StatusNotFound},
	{usecase.ErrConflict, http.StatusConflict},
	{usecase.ErrUnavailable, http.StatusServiceUnavailable},
	{usecase.ErrStorageUnavailable, http.StatusInternalServerError},
	{usecase.ErrStorage, http.StatusInternalServerError},
}

// writeError maps use case errors to a status code and a JSON body. Errors
// without a known sentinel are reported as internal errors.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, m := range errorStatus {
		if !errors.Is(err, m.err) {
			continue
		}

		resp := errorResponse{
			Error: strings.TrimSuffix(err.Error(), ": "+m.err.Error()),
		}
		var ge *goerr.Error
		if errors.As(err, &ge) {
			values := ge.Values()
			resp.Allowed = stringsValue(values[usecase.AllowedKey])
			resp.Required = stringsValue(values[usecase.RequiredKey])
			if detail, ok := values[usecase.DetailKey].(string); ok {
				resp.Detail = detail
			}
		}

		if m.status >= http.StatusInternalServerError {
			errutil.Handle(ctx, err, "request failed")
		} else {
			logging.From(ctx).Info("request rejected", "status", m.status, "error", err.Error())
		}
		writeJSON(ctx, w, m.status, resp)
		return
	}

	errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
}

func stringsValue(v any) []string {
	s, _ := v.([]string)
	return s
}

// decodeMutation checks the caller before reading the body so that a missing
// identity is reported ahead of body errors
func decodeMutation(w http.ResponseWriter, r *http.Request, v any) error {
	if err := usecase.RequireIdentity(auth.IdentityFromContext(r.Context())); err != nil {
		return err
	}
	return decodeJSON(w, r, v)
}

// decodeJSON reads a JSON body into v. Malformed or oversized bodies are
// validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return goerr.Wrap(usecase.ErrValidation, "request body too large",
				goerr.V(usecase.DetailKey, err.Error()))
		}
		return goerr.Wrap(usecase.ErrValidation, "invalid JSON body",
			goerr.V(usecase.DetailKey, err.Error()))
	}
	return nil
}
