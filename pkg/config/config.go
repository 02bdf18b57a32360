// Package config holds the runtime configuration for the telemetry daemon
// and CLI.
package config

// Config is the read side of the configuration.
type Config interface {
	RefreshIntervalSec() int
	VirtualTempMinCurrentMa() int
	VirtualTempMaxDeviationC() float64
	IoregPath() string
	PmsetPath() string
	ProfilerPath() string
	SysctlPath() string
	PowermetricsPath() string

	Load() error
	Save() error
}

const (
	// Refresh interval bounds. Registry reads are cheap but powermetrics
	// sampling is not, so the floor keeps a misconfigured daemon from
	// hammering the sampler.
	minRefreshIntervalSec = 10
	maxRefreshIntervalSec = 120
)
