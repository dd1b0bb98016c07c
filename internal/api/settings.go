package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aureum-app/settings/internal/i18n"
	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/profile"
	"github.com/aureum-app/settings/internal/settings"
	"github.com/aureum-app/settings/internal/theme"
)

const maxRequestBodySize = 64 << 10 // 64KB

// Deps holds what the settings API needs.
type Deps struct {
	Settings *settings.Service
	Theme    *theme.Provider
	Language *i18n.Manager
	Profile  *profile.Manager
	Token    string
}

type themeRequest struct {
	Mode string `json:"mode"`
}

type languageRequest struct {
	Mode string `json:"mode"`
}

type notificationRequest struct {
	Enabled *bool `json:"enabled"`
}

type translation struct {
	Key      string              `json:"key"`
	Language preference.Language `json:"language"`
	Text     string              `json:"text"`
}

// NewRouter returns the local settings API. Everything except /health
// requires the bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/settings", handleGetSettings(deps))

		r.Get("/settings/theme", handleGetTheme(deps))
		r.Put("/settings/theme", handlePutTheme(deps))
		r.Post("/settings/theme/toggle", handleToggleTheme(deps))

		r.Get("/settings/language", handleGetLanguage(deps))
		r.Put("/settings/language", handlePutLanguage(deps))
		r.Get("/settings/language/options", handleLanguageOptions(deps))

		r.Get("/settings/notifications", handleGetNotifications(deps))
		r.Put("/settings/notifications/{name}", handlePutNotification(deps))

		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))

		r.Get("/i18n/{key}", handleTranslate(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleGetSettings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := deps.Settings.Snapshot(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load settings: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleGetTheme(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Theme.State())
	}
}

func handlePutTheme(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req themeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		mode, err := preference.ParseThemeMode(req.Mode)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Theme.SetMode(r.Context(), mode); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to set theme: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Theme.State())
	}
}

func handleToggleTheme(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := deps.Theme.Toggle(r.Context()); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to toggle theme: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Theme.State())
	}
}

func handleGetLanguage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Settings.Language(r.Context()))
	}
}

func handlePutLanguage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req languageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		err := deps.Language.ChangeLanguage(r.Context(), preference.LanguageMode(req.Mode))
		if errors.Is(err, preference.ErrInvalidMode) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Settings.Language(r.Context()))
	}
}

func handleLanguageOptions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Language.Options())
	}
}

func handleGetNotifications(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Settings.Notifications(r.Context()))
	}
}

func handlePutNotification(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notificationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "enabled is required")
			return
		}
		n, err := deps.Settings.SetNotification(r.Context(), chi.URLParam(r, "name"), *req.Enabled)
		if errors.Is(err, settings.ErrUnknownToggle) {
			httpError(w, http.StatusNotFound, "not_found", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, n)
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Profile.GetProfile()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// handlePatchProfile accepts either full keys ("identity.name") or the
// short field names ("name").
func handlePatchProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]string
		if !decodeBody(w, r, &fields) {
			return
		}
		if len(fields) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "no fields to update")
			return
		}

		full := make(map[string]string, len(fields))
		for key, value := range fields {
			if !strings.Contains(key, ".") {
				key = "identity." + key
			}
			full[key] = value
		}
		err := deps.Profile.SetFields(full)
		if errors.Is(err, profile.ErrUnknownField) || errors.Is(err, profile.ErrInvalidEmail) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update profile: %v", err)
			return
		}

		p, err := deps.Profile.GetProfile()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// handleTranslate resolves a catalog key in the applied language, or in
// the language named by the lang query parameter.
func handleTranslate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		lang := deps.Language.CurrentLanguage()
		if q := r.URL.Query().Get("lang"); q != "" {
			lang = preference.Language(q)
			if !preference.IsSupported(lang) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unsupported language %q", q)
				return
			}
		}

		cat := deps.Language.Catalog()
		if !cat.Has(lang, key) && !cat.Has(preference.DefaultLanguage, key) {
			httpError(w, http.StatusNotFound, "not_found", "no translation for %q", key)
			return
		}

		var args []any
		for _, a := range r.URL.Query()["arg"] {
			args = append(args, a)
		}
		writeJSON(w, http.StatusOK, translation{Key: key, Language: lang, Text: cat.T(lang, key, args...)})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
