package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"vault-gateway/internal/model"
	"vault-gateway/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	var remoteErr *model.RemoteAPIError
	var upstreamErr *model.UpstreamError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		body.NeedsAuth = apiErr.NeedsAuth
	} else if errors.Is(err, model.ErrInvalidShareURL) {
		status = http.StatusBadRequest
		body.Code = "INVALID_SHARE_URL"
		body.Message = "Not a recognizable share link"
	} else if errors.Is(err, model.ErrTokenNotFound) {
		status = http.StatusUnauthorized
		body.Code = "NEEDS_AUTH"
		body.Message = "No captured session available"
		body.NeedsAuth = true
	} else if errors.Is(err, model.ErrUnexpectedResponse) {
		status = http.StatusUnauthorized
		body.Code = "SESSION_STALE"
		body.Message = "Remote host did not answer as expected; the session is likely stale"
		body.NeedsAuth = true
	} else if errors.Is(err, model.ErrLinkExpired) {
		status = http.StatusUnauthorized
		body.Code = "LINK_EXPIRED"
		body.Message = "Direct link rejected; re-run an authenticated fetch"
		body.NeedsAuth = true
	} else if errors.Is(err, model.ErrNoLinkAvailable) {
		status = http.StatusConflict
		body.Code = "NO_LINK_AVAILABLE"
		body.Message = "No direct link stored; run an authenticated fetch first"
	} else if errors.Is(err, model.ErrContainerNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Container not found"
	} else if errors.Is(err, model.ErrItemNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Item not found"
	} else if errors.As(err, &remoteErr) {
		status = http.StatusBadGateway
		body.Code = "REMOTE_API_ERROR"
		body.Message = "Remote host rejected the request"
		body.Details = remoteErr.Error()
	} else if errors.As(err, &upstreamErr) {
		status = http.StatusBadGateway
		body.Code = "UPSTREAM_ERROR"
		body.Message = "Upstream transfer failed"
		body.Details = upstreamErr.Error()
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
