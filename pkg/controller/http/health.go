package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
)

// healthTimeout bounds the datastore check
const healthTimeout = 5 * time.Second

type healthResponse struct {
	Status     string   `json:"status"`
	DB         *int     `json:"db,omitempty"`
	MissingEnv []string `json:"missing_env,omitempty"`
	DBError    string   `json:"db_error,omitempty"`
}

// healthHandler always answers 200 so load balancers keep the instance; a
// degraded state is reported in the body
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if len(s.missingConfig) > 0 {
		writeJSON(ctx, w, http.StatusOK, healthResponse{Status: "degraded", MissingEnv: s.missingConfig})
		return
	}

	if err := s.pingDatastore(ctx); err != nil {
		logging.From(ctx).Warn("health check degraded", "error", err)
		writeJSON(ctx, w, http.StatusOK, healthResponse{Status: "degraded", DBError: dbErrorMessage(err)})
		return
	}

	one := 1
	writeJSON(ctx, w, http.StatusOK, healthResponse{Status: "ok", DB: &one})
}

func (s *Server) pingDatastore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	uc, err := s.provider.UseCases(ctx)
	if err != nil {
		return err
	}
	return uc.Repository().Ping(ctx)
}

// dbErrorMessage prefers the underlying cause recorded by the provider
func dbErrorMessage(err error) string {
	var ge *goerr.Error
	if errors.As(err, &ge) {
		if detail, ok := ge.Values()[usecase.DetailKey].(string); ok && detail != "" {
			return detail
		}
	}
	return err.Error()
}
