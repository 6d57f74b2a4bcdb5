package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/handcrafted-haven/marketplace-backend/api/middleware"
	"github.com/handcrafted-haven/marketplace-backend/api/responses"
	pkgcache "github.com/handcrafted-haven/marketplace-backend/pkg/cache"
	pkgerrors "github.com/handcrafted-haven/marketplace-backend/pkg/errors"
)

// requireUser pulls the authenticated user id out of the request context.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

// writeRevalidated purges the stale paths and echoes them in the envelope so
// clients and edge caches can follow.
func writeRevalidated(ctx context.Context, w http.ResponseWriter, purger *pkgcache.Purger, status int, data any, paths []string) {
	var purged []string
	if purger != nil {
		purged = purger.Purge(ctx, paths)
	} else if len(paths) > 0 {
		purged = paths
	}
	responses.WriteSuccessRevalidated(w, status, data, purged)
}
