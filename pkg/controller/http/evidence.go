package http

import (
	"net/http"

	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
)

type uploadEvidenceRequest struct {
	Filename      string `json:"filename"`
	ContentBase64 string `json:"content_base64"`
}

type uploadEvidenceResponse struct {
	ID         string `json:"id"`
	StorageKey string `json:"s3_key"`
}

type presignEvidenceRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type presignEvidenceResponse struct {
	UploadURL        string `json:"upload_url"`
	StorageKey       string `json:"s3_key"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type confirmEvidenceRequest struct {
	Filename    string `json:"filename"`
	StorageKey  string `json:"s3_key"`
	ContentType string `json:"content_type"`
	SizeBytes   *int64 `json:"size_bytes"`
}

func listEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	evidence, err := useCasesFrom(ctx).Evidence.List(ctx, actionIDParam(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"items": mapSlice(evidence, toEvidenceResponse),
	})
}

func uploadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req uploadEvidenceRequest
	if err := decodeMutation(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	evidence, err := useCasesFrom(ctx).Evidence.UploadInline(ctx, auth.IdentityFromContext(ctx),
		actionIDParam(r), req.Filename, req.ContentBase64)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, uploadEvidenceResponse{
		ID:         evidence.ID.String(),
		StorageKey: evidence.StorageKey,
	})
}

func presignEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req presignEvidenceRequest
	if err := decodeMutation(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	upload, err := useCasesFrom(ctx).Evidence.Presign(ctx, auth.IdentityFromContext(ctx),
		actionIDParam(r), req.Filename, req.ContentType)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, presignEvidenceResponse{
		UploadURL:        upload.UploadURL,
		StorageKey:       upload.StorageKey,
		ExpiresInSeconds: int(upload.ExpiresIn.Seconds()),
	})
}

func confirmEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req confirmEvidenceRequest
	if err := decodeMutation(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	evidence, err := useCasesFrom(ctx).Evidence.Confirm(ctx, auth.IdentityFromContext(ctx), actionIDParam(r),
		usecase.ConfirmEvidenceInput{
			Filename:    req.Filename,
			StorageKey:  req.StorageKey,
			ContentType: req.ContentType,
			SizeBytes:   req.SizeBytes,
		})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, idResponse{ID: evidence.ID.String()})
}
