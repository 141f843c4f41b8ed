package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodshare-backend/api/middleware"
	"github.com/angelmondragon/foodshare-backend/api/responses"
	"github.com/angelmondragon/foodshare-backend/api/validators"
	"github.com/angelmondragon/foodshare-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/foodshare-backend/pkg/errors"
	"github.com/angelmondragon/foodshare-backend/pkg/logger"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-FS-Token", result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthVerify echoes the identity bound to the presented token. Runs behind
// the auth middleware, so reaching it at all means the token checked out.
func AuthVerify(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		email := middleware.UserEmailFromContext(r.Context())
		if userID == "" || email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"user_id": userID, "email": email})
	}
}
