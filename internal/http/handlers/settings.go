package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"creditgw/internal/audit"
	"creditgw/internal/config"
)

// SettingsStore reads and persists provider credentials.
type SettingsStore interface {
	EasyCredit() config.EasyCreditSettings
	Iute() config.IuteSettings
	SaveEasyCredit(config.EasyCreditSettings) error
	SaveIute(config.IuteSettings) error
}

// GetEasyCreditSettings never returns the password, only whether one is stored.
func GetEasyCreditSettings(store SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := store.EasyCredit()
		masked := ""
		if s.APIPassword != "" {
			masked = "********"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"env":                 s.Env,
				"base_url":            s.BaseURL,
				"api_user":            s.APIUser,
				"api_password_masked": masked,
			},
		})
	}
}

func SaveEasyCreditSettings(store SettingsStore, auditLog *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Env         string `json:"env"`
			BaseURL     string `json:"base_url"`
			APIUser     string `json:"api_user"`
			APIPassword string `json:"api_password"`
		}
		if err := decodeOptional(w, r, &req); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		in := config.EasyCreditSettings{
			Env:         strings.ToLower(strings.TrimSpace(req.Env)),
			BaseURL:     req.BaseURL,
			APIUser:     req.APIUser,
			APIPassword: req.APIPassword,
		}
		if err := store.SaveEasyCredit(in); err != nil {
			log.Error().Err(err).Msg("save easycredit settings failed")
			writeFail(w, http.StatusInternalServerError, err.Error())
			return
		}
		auditLog.Info(r.Context(), "credit.admin", "EasyCredit settings saved", map[string]any{
			"env":          in.Env,
			"password_set": strings.TrimSpace(in.APIPassword) != "",
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// GetIuteSettings reports only whether each identifier is set.
func GetIuteSettings(store SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := store.Iute()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"env":                        s.Env,
				"base_url":                   s.BaseURL,
				"api_key_masked":             s.APIKey != "",
				"pos_identifier_masked":      s.POSIdentifier != "",
				"salesman_identifier_masked": s.SalesmanIdentifier != "",
			},
		})
	}
}

func SaveIuteSettings(store SettingsStore, auditLog *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Env                string `json:"env"`
			BaseURL            string `json:"base_url"`
			APIKey             string `json:"api_key"`
			POSIdentifier      string `json:"pos_identifier"`
			SalesmanIdentifier string `json:"salesman_identifier"`
		}
		if err := decodeOptional(w, r, &req); err != nil {
			writeFail(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		in := config.IuteSettings{
			Env:                strings.ToLower(strings.TrimSpace(req.Env)),
			BaseURL:            req.BaseURL,
			APIKey:             req.APIKey,
			POSIdentifier:      req.POSIdentifier,
			SalesmanIdentifier: req.SalesmanIdentifier,
		}
		if err := store.SaveIute(in); err != nil {
			log.Error().Err(err).Msg("save iute settings failed")
			writeFail(w, http.StatusInternalServerError, err.Error())
			return
		}
		auditLog.Info(r.Context(), "credit.admin", "Iute settings saved", map[string]any{
			"env":         in.Env,
			"api_key_set": strings.TrimSpace(in.APIKey) != "",
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// decodeOptional decodes a JSON body into v, treating an empty body as {}.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
