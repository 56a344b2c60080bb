package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/wealthguardian-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
)

func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
