package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"healthchat-backend/internal/auth"
	"healthchat-backend/internal/identity"
	"healthchat-backend/internal/services"
	"healthchat-backend/pkg/httputil"
)

// respondServiceError maps service-layer errors onto HTTP responses.
// Policy denials carry their reason code; everything unexpected collapses
// to a generic 500 so internals do not leak.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		httputil.RespondErrorWithReason(w, http.StatusForbidden, "operation not permitted", services.DenyReason(err))
	case errors.Is(err, services.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, auth.ErrUnauthenticated):
		httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired credentials")
	case errors.Is(err, identity.ErrBadCredentials):
		httputil.RespondError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, identity.ErrEmailTaken):
		httputil.RespondError(w, http.StatusConflict, "email already registered")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pageParams reads limit/offset query parameters with zero defaults; the
// services clamp them.
func pageParams(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}
