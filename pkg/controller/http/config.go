package http

import (
	"net/http"

	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

type policyResponse struct {
	EnforceOwnerAllowList     bool `json:"enforce_owner_allow_list"`
	EnforceComponentAllowList bool `json:"enforce_component_allow_list"`
	CloseRequiresResolved     bool `json:"close_requires_resolved"`
	AllowDelete               bool `json:"allow_delete"`
}

type configResponse struct {
	Owners     []string       `json:"owners"`
	Components []string       `json:"components"`
	Priorities []string       `json:"priorities"`
	Statuses   []string       `json:"statuses"`
	Roles      []string       `json:"roles"`
	Policy     policyResponse `json:"policy"`
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func configHandler(policy model.Policy) http.HandlerFunc {
	resp := configResponse{
		Owners:     nonNil(policy.Owners),
		Components: nonNil(policy.Components),
		Priorities: toStrings(types.AllPriorities()),
		Statuses:   toStrings(types.AllActionStatuses()),
		Roles:      toStrings(types.AllRoles()),
		Policy: policyResponse{
			EnforceOwnerAllowList:     policy.EnforceOwnerAllowList,
			EnforceComponentAllowList: policy.EnforceComponentAllowList,
			CloseRequiresResolved:     policy.CloseRequiresResolved,
			AllowDelete:               policy.AllowDelete,
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}
