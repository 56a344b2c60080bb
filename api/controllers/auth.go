package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/wealthguardian-backend/api/middleware"
	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	"github.com/angelmondragon/wealthguardian-backend/api/validators"
	"github.com/angelmondragon/wealthguardian-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

const maxDisplayNameRunes = 50

type sessionOpener[Req any] func(context.Context, Req) (*auth.LoginResponse, error)

// openSession decodes Req, runs open and answers with the new token pair.
// The access token is also echoed in TokenHeader.
func openSession[Req any](status int, open sessionOpener[Req], prepare func(*Req), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req Req
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if prepare != nil {
			prepare(&req)
		}

		result, err := open(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.Header().Set(middleware.TokenHeader, result.AccessToken)
		responses.WriteSuccessStatus(w, status, result)
	}
}

func unavailable(what string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, what+" unavailable"))
	}
}

// AuthLogin exchanges credentials for a session.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("auth service", logg)
	}
	return openSession(http.StatusOK, svc.Login, nil, logg)
}

// AuthRegister opens an account with a funded wallet and signs the user in.
func AuthRegister(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("register service", logg)
	}
	return openSession(http.StatusCreated, svc.Register, func(req *auth.RegisterRequest) {
		req.Name = validators.SanitizeString(req.Name, maxDisplayNameRunes)
	}, logg)
}
