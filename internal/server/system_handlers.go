package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ModelInfo describes the configured model provider for status endpoints
type ModelInfo struct {
	Provider      string
	Model         string
	HasCredential bool
}

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	model       ModelInfo
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, model ModelInfo) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		model:       model,
	}
}

// SystemStatusResponse represents the process and host status
type SystemStatusResponse struct {
	Status               string  `json:"status"`
	Uptime               string  `json:"uptime"`
	UptimeSeconds        int64   `json:"uptime_seconds"`
	GoVersion            string  `json:"go_version"`
	Goroutines           int     `json:"goroutines"`
	HeapAllocMB          float64 `json:"heap_alloc_mb"`
	CPUPercent           float64 `json:"cpu_percent"`
	MemoryPercent        float64 `json:"memory_percent"`
	Provider             string  `json:"provider"`
	Model                string  `json:"model"`
	CredentialConfigured bool    `json:"credential_configured"`
}

// HandleSystemStatus returns process, host and provider status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	cpuPercent, memPercent := h.getSystemStats()
	uptime := time.Since(h.startupTime)

	response := SystemStatusResponse{
		Status:               "ok",
		Uptime:               uptime.Round(time.Second).String(),
		UptimeSeconds:        int64(uptime.Seconds()),
		GoVersion:            runtime.Version(),
		Goroutines:           runtime.NumGoroutine(),
		HeapAllocMB:          float64(memStats.HeapAlloc) / 1024 / 1024,
		CPUPercent:           cpuPercent,
		MemoryPercent:        memPercent,
		Provider:             h.model.Provider,
		Model:                h.model.Model,
		CredentialConfigured: h.model.HasCredential,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}

// getSystemStats calculates CPU and RAM usage percentages.
// The 100ms CPU sample keeps the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
