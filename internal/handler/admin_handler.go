package handler

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"nexchat/internal/pkg/auth/jwt"
	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/logx"
	"nexchat/internal/pkg/randx"
	"nexchat/internal/pkg/req"
	"nexchat/internal/pkg/resp"
)

type AdminLoginInput struct {
	Password string `json:"password"`
}

// HandleAdminLogin exchanges the relay admin password for a short-lived
// admin token.
func HandleAdminLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input AdminLoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(deps.Config.AdminPasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("Admin login rejected")
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		payload := &jwt.Payload{Role: jwt.RoleAdmin}
		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.AdminSessionExpiration)
		if err != nil {
			logx.Error(err, "Failed to sign admin token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"token": token})
	}
}

type MaintenanceInput struct {
	Channel string `json:"channel"`
	Enabled bool   `json:"enabled"`
}

// HandleSetMaintenance flips the maintenance flag inside a channel's
// document. Every synced device adopts the flag on its next pass.
func HandleSetMaintenance(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input MaintenanceInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !randx.IsValidChannelCode(input.Channel) {
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelCodeInvalid))
			return
		}

		raw, err := deps.Channels.Get(r.Context(), input.Channel)
		if err != nil {
			logx.Error(err, "Failed to load channel document", "channel", input.Channel)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if raw == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrChannelNotFound))
			return
		}

		var doc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &doc); err != nil {
			logx.Error(err, "Channel document is not a JSON object", "channel", input.Channel)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		flag, _ := json.Marshal(input.Enabled)
		doc["maintenanceMode"] = flag

		updated, err := json.Marshal(doc)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.Channels.Replace(r.Context(), input.Channel, updated); err != nil {
			resp.RespondError(w, r, asCustomError(err))
			return
		}

		logx.Info("Maintenance flag updated", "channel", input.Channel, "enabled", input.Enabled)
		resp.RespondSuccess(w, r, nil)
	}
}
