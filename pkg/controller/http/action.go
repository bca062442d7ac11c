package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
)

type createActionRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Owner           string `json:"owner"`
	Component       string `json:"component"`
	Priority        string `json:"priority"`
	Status          string `json:"status"`
	ResolutionNotes string `json:"resolution_notes"`
}

type updateActionRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Owner           *string `json:"owner"`
	Component       *string `json:"component"`
	Priority        *string `json:"priority"`
	Status          *string `json:"status"`
	ResolutionNotes *string `json:"resolution_notes"`
}

type changeStatusRequest struct {
	ToStatus        string `json:"to_status"`
	ResolutionNotes string `json:"resolution_notes"`
}

type listActionsResponse struct {
	Items  []actionResponse `json:"items"`
	Viewer viewerResponse   `json:"viewer"`
}

func actionIDParam(r *http.Request) types.ActionID {
	return types.ActionID(chi.URLParam(r, "id"))
}

// filterFromQuery builds a list filter. Unknown status or priority values are
// kept as given and match nothing.
func filterFromQuery(r *http.Request) model.ActionFilter {
	q := r.URL.Query()
	filter := model.ActionFilter{
		Owner:     q.Get("owner"),
		Component: q.Get("component"),
		Query:     q.Get("q"),
	}

	if raw := q.Get("status"); raw != "" {
		if s, err := types.ParseActionStatus(raw); err == nil {
			filter.Status = s
		} else {
			filter.Status = types.ActionStatus(raw)
		}
	}
	if raw := q.Get("priority"); raw != "" {
		if p, err := types.ParsePriority(raw); err == nil {
			filter.Priority = p
		} else {
			filter.Priority = types.Priority(raw)
		}
	}
	return filter
}

func listActionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := auth.IdentityFromContext(ctx)

	actions, err := useCasesFrom(ctx).Action.List(ctx, filterFromQuery(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, listActionsResponse{
		Items: mapSlice(actions, toActionResponse),
		Viewer: viewerResponse{
			User: identity.Actor(),
			Role: identity.Role.String(),
		},
	})
}

func getActionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	action, err := useCasesFrom(ctx).Action.Get(ctx, actionIDParam(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toActionResponse(action))
}

func createActionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createActionRequest
	if err := decodeMutation(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	action, err := useCasesFrom(ctx).Action.Create(ctx, auth.IdentityFromContext(ctx), usecase.CreateActionInput{
		Title:           req.Title,
		Description:     req.Description,
		Owner:           req.Owner,
		Component:       req.Component,
		Priority:        req.Priority,
		Status:          req.Status,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, idResponse{ID: action.ID.String()})
}

func updateActionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateActionRequest
	if err := decodeMutation(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	_, err := useCasesFrom(ctx).Action.Update(ctx, auth.IdentityFromContext(ctx), actionIDParam(r), usecase.UpdateActionInput{
		Title:           req.Title,
		Description:     req.Description,
		Owner:           req.Owner,
		Component:       req.Component,
		Priority:        req.Priority,
		Status:          req.Status,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, okResponse{OK: true})
}

func changeStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changeStatusRequest
	if err := decodeMutation(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	action, err := useCasesFrom(ctx).Workflow.ChangeStatus(ctx, auth.IdentityFromContext(ctx),
		actionIDParam(r), req.ToStatus, req.ResolutionNotes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, okResponse{OK: true, Status: action.Status.String()})
}

func deleteActionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := useCasesFrom(ctx).Action.Delete(ctx, auth.IdentityFromContext(ctx), actionIDParam(r)); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, okResponse{OK: true})
}

func listAuditHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := useCasesFrom(ctx).Audit.List(ctx, actionIDParam(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"items": mapSlice(events, toAuditEventResponse),
	})
}
