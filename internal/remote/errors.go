package remote

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/go-github/v58/github"

	"github.com/ghsync/ghsync/internal/syncerr"
)

// classifyStatus implements spec.md §4.5's fixed HTTP status → error
// category mapping, adapted from the teacher's graph/errors.go
// classifyStatus (renamed and retargeted to emit SyncErrorType values
// instead of OneDrive-specific sentinels).
func classifyStatus(code int) syncerr.Type {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return syncerr.InvalidData
	case http.StatusUnauthorized:
		return syncerr.AuthenticationFailed
	case http.StatusForbidden:
		return syncerr.PermissionDenied
	case http.StatusNotFound:
		return syncerr.ResourceNotFound
	case http.StatusGone:
		return syncerr.ResourceDeleted
	case http.StatusTooManyRequests:
		return syncerr.APIRateLimit
	default:
		if code >= http.StatusInternalServerError {
			return syncerr.ServiceUnavailable
		}

		return syncerr.UnknownError
	}
}

// wrapGitHubError converts an error returned by a go-github call into a
// *syncerr.SyncError, classifying by HTTP status when the error carries
// one and falling back to the generic FromError waterfall (network
// errors, timeouts, etc.) otherwise.
func wrapGitHubError(err error, entityType, entityID string) *syncerr.SyncError {
	if err == nil {
		return nil
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		category := classifyStatus(ghErr.Response.StatusCode)

		se := syncerr.New(category, ghErr.Message).WithEntity(entityType, entityID)

		if category == syncerr.APIRateLimit {
			if retryAfter := ghErr.Response.Header.Get("Retry-After"); retryAfter != "" {
				if secs, parseErr := strconv.Atoi(retryAfter); parseErr == nil {
					se = se.WithMetadata(map[string]any{"retry_after": secs})
				}
			}
		}

		return se
	}

	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		return syncerr.RateLimit(0).WithEntity(entityType, entityID)
	}

	return syncerr.FromError(err, entityType, entityID)
}
