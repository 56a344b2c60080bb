package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/wealthguardian-backend/api/middleware"
)

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}
