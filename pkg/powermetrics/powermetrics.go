// Package powermetrics samples the per-component power breakdown. The
// sampler needs root; callers must check privilege before asking.
package powermetrics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/powerinfo/powerinfo/pkg/sysutil"
	"github.com/powerinfo/powerinfo/pkg/types"
)

// Client invokes the power sampler.
type Client struct {
	runner sysutil.Runner
	path   string
}

// NewClient returns a Client with the default sampler path.
func NewClient(runner sysutil.Runner, path string) *Client {
	if path == "" {
		path = "/usr/bin/powermetrics"
	}
	return &Client{runner: runner, path: path}
}

// Sample takes one 1-second sample. Returns nil when the sampler is
// unavailable or produced nothing usable.
func (c *Client) Sample() *types.PowerMetrics {
	out, ok := c.runner.Run(c.path,
		"--samplers", "cpu_power,thermal",
		"-n", "1", "-i", "1000")
	if !ok {
		return nil
	}
	return Parse(out)
}

var (
	powerLineRe = regexp.MustCompile(`^(CPU|GPU|ANE|DRAM) Power:\s+([\d.]+)\s*(mW|W)`)
	pressureRe  = regexp.MustCompile(`pressure level:\s+(\w+)`)
)

// Parse extracts the component watts and thermal pressure from one sample.
// The total is always recomputed as the sum of the four components rather
// than trusting the sampler's combined line, whose composition varies
// across OS releases.
func Parse(out string) *types.PowerMetrics {
	pm := &types.PowerMetrics{ThermalPressure: "Nominal"}
	found := false
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if m := powerLineRe.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			if m[3] == "mW" {
				v /= 1000
			}
			switch m[1] {
			case "CPU":
				pm.CPUPowerW = v
			case "GPU":
				pm.GPUPowerW = v
			case "ANE":
				pm.ANEPowerW = v
			case "DRAM":
				pm.DRAMPowerW = v
			}
			found = true
			continue
		}
		if m := pressureRe.FindStringSubmatch(line); m != nil {
			pm.ThermalPressure = m[1]
		}
	}
	if !found {
		return nil
	}
	pm.TotalW = pm.CPUPowerW + pm.GPUPowerW + pm.ANEPowerW + pm.DRAMPowerW
	return pm
}
