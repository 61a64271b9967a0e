package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/nepalpay/infra/config"
	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/infra/response"
	"github.com/mstgnz/nepalpay/provider"
)

// Reloader rebuilds the payment service from a new provider configuration
type Reloader interface {
	Reload(cfg provider.Config) error
}

// ConfigHandler manages stored provider settings
type ConfigHandler struct {
	providerConfig *config.ProviderConfig
	reloader       Reloader
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(providerConfig *config.ProviderConfig, reloader Reloader) *ConfigHandler {
	return &ConfigHandler{
		providerConfig: providerConfig,
		reloader:       reloader,
	}
}

var secretMarkers = []string{"secret", "password", "key", "token"}

// RedactSettings masks credential values so settings can be shown back to operators
func RedactSettings(settings map[string]string) map[string]string {
	out := make(map[string]string, len(settings))
	for k, v := range settings {
		out[k] = v
		lower := strings.ToLower(k)
		for _, marker := range secretMarkers {
			if strings.Contains(lower, marker) {
				out[k] = "***"
				break
			}
		}
	}
	return out
}

// ListConfigs handles GET /v1/config
func (h *ConfigHandler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	all := h.providerConfig.All()
	out := make(map[string]map[string]string, len(all))
	for name, settings := range all {
		out[name] = RedactSettings(settings)
	}
	response.Success(w, http.StatusOK, "Provider configurations", out)
}

// GetConfig handles GET /v1/config/{provider}
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "provider"))
	settings, err := h.providerConfig.GetConfig(name)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Provider is not configured", err)
		return
	}
	response.Success(w, http.StatusOK, "Provider configuration", RedactSettings(settings))
}

// SetConfig handles PUT /v1/config/{provider}. The settings are validated by
// building a payment service with them before anything is stored.
func (h *ConfigHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "provider"))
	if _, err := provider.Get(provider.ProviderID(name)); err != nil {
		response.Failure(w, http.StatusNotFound, string(provider.KindProviderNotConfigured), "Unknown provider", err)
		return
	}

	var settings map[string]string
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if len(settings) == 0 {
		response.Error(w, http.StatusBadRequest, "Settings cannot be empty", nil)
		return
	}

	next := h.providerConfig.All()
	next[name] = settings
	if err := h.reloader.Reload(provider.ConfigFromMap(next)); err != nil {
		writeConfigError(w, err)
		return
	}

	if err := h.providerConfig.SetConfig(name, settings); err != nil {
		logger.Error("Failed to persist provider configuration", err, logger.LogContext{Provider: name})
		response.Error(w, http.StatusInternalServerError, "Failed to save configuration", err)
		return
	}

	logger.Info("Provider configuration updated", logger.LogContext{Provider: name})
	response.Success(w, http.StatusOK, "Provider configured", RedactSettings(settings))
}

// DeleteConfig handles DELETE /v1/config/{provider}
func (h *ConfigHandler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "provider"))
	if _, err := h.providerConfig.GetConfig(name); err != nil {
		response.Error(w, http.StatusNotFound, "Provider is not configured", err)
		return
	}

	next := h.providerConfig.All()
	delete(next, name)
	if err := h.reloader.Reload(provider.ConfigFromMap(next)); err != nil {
		writeConfigError(w, err)
		return
	}

	if err := h.providerConfig.DeleteConfig(name); err != nil {
		logger.Error("Failed to delete provider configuration", err, logger.LogContext{Provider: name})
		response.Error(w, http.StatusInternalServerError, "Failed to delete configuration", err)
		return
	}

	logger.Info("Provider configuration removed", logger.LogContext{Provider: name})
	response.Success(w, http.StatusOK, "Provider removed", nil)
}

// writeConfigError reports settings that fail validation as a client error
func writeConfigError(w http.ResponseWriter, err error) {
	if errors.Is(err, provider.ErrConfigurationInvalid) {
		response.Failure(w, http.StatusBadRequest, string(provider.KindConfigurationInvalid), "Invalid provider configuration", err)
		return
	}
	writeServiceError(w, "Failed to apply configuration", err)
}
