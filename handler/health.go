package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/nepalpay/infra/config"
	"github.com/mstgnz/nepalpay/infra/response"
	"github.com/mstgnz/nepalpay/provider"
)

// StatsSource reports settings store statistics
type StatsSource interface {
	GetStats() (map[string]any, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	paymentService PaymentServiceInterface
	settings       StatsSource
	auditEnabled   bool
	startTime      time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string                     `json:"status"`
	Version     string                     `json:"version"`
	Timestamp   time.Time                  `json:"timestamp"`
	Uptime      string                     `json:"uptime"`
	Environment string                     `json:"environment"`
	Providers   map[string]*ProviderHealth `json:"providers"`
	System      *SystemHealth              `json:"system"`
	Services    map[string]*ServiceHealth  `json:"services"`
}

// ProviderHealth reports whether a provider is configured and what it supports
type ProviderHealth struct {
	Status       string                `json:"status"`
	Configured   bool                  `json:"configured"`
	Capabilities provider.Capabilities `json:"capabilities"`
}

// SystemHealth represents process resource usage
type SystemHealth struct {
	Alloc      string `json:"alloc"`
	Sys        string `json:"sys"`
	GCRuns     uint32 `json:"gc_runs"`
	GoRoutines int    `json:"goroutines"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status      string         `json:"status"`
	Healthy     bool           `json:"healthy"`
	Description string         `json:"description,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(paymentService PaymentServiceInterface, settings StatsSource, auditEnabled bool) *HealthHandler {
	return &HealthHandler{
		paymentService: paymentService,
		settings:       settings,
		auditEnabled:   auditEnabled,
		startTime:      time.Now(),
	}
}

// CheckHealth handles GET /health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	health := &HealthStatus{
		Version:     "1.0.0",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: config.GetEnv("APP_ENV", "development"),
		Providers:   h.checkProviders(),
		System:      checkSystem(),
		Services:    h.checkServices(),
	}
	health.Status = determineOverallStatus(health)

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	_ = response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkProviders() map[string]*ProviderHealth {
	providers := make(map[string]*ProviderHealth)
	if h.paymentService == nil {
		return providers
	}

	for _, id := range h.paymentService.Providers() {
		caps, err := h.paymentService.Capabilities(id)
		if err != nil {
			providers[string(id)] = &ProviderHealth{Status: "not_available"}
			continue
		}
		providers[string(id)] = &ProviderHealth{Status: "healthy", Configured: true, Capabilities: caps}
	}
	return providers
}

func (h *HealthHandler) checkServices() map[string]*ServiceHealth {
	services := make(map[string]*ServiceHealth)

	if h.paymentService != nil {
		services["payment_service"] = &ServiceHealth{Status: "healthy", Healthy: true, Description: "Payment processing service"}
	} else {
		services["payment_service"] = &ServiceHealth{Status: "unhealthy", Error: "Payment service not initialized"}
	}

	switch {
	case h.settings == nil:
		services["provider_settings"] = &ServiceHealth{Status: "not_configured", Healthy: true, Description: "Provider settings are read from the environment only"}
	default:
		stats, err := h.settings.GetStats()
		if err != nil {
			services["provider_settings"] = &ServiceHealth{Status: "degraded", Healthy: true, Error: err.Error()}
		} else {
			services["provider_settings"] = &ServiceHealth{Status: "healthy", Healthy: true, Description: "Provider settings store", Details: stats}
		}
	}

	if h.auditEnabled {
		services["audit_log"] = &ServiceHealth{Status: "healthy", Healthy: true, Description: "Payment audit logging to OpenSearch"}
	} else {
		services["audit_log"] = &ServiceHealth{Status: "not_configured", Healthy: true, Description: "OpenSearch logging disabled"}
	}

	return services
}

func checkSystem() *SystemHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemHealth{
		Alloc:      formatBytes(memStats.Alloc),
		Sys:        formatBytes(memStats.Sys),
		GCRuns:     memStats.NumGC,
		GoRoutines: runtime.NumGoroutine(),
	}
}

func determineOverallStatus(health *HealthStatus) string {
	for _, service := range health.Services {
		if !service.Healthy {
			return "unhealthy"
		}
	}
	for _, service := range health.Services {
		if service.Status == "degraded" {
			return "degraded"
		}
	}
	if len(health.Providers) == 0 {
		return "degraded"
	}
	return "healthy"
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
