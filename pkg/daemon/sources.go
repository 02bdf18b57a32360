package daemon

import (
	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"

	"github.com/powerinfo/powerinfo/pkg/config"
	"github.com/powerinfo/powerinfo/pkg/pmset"
	"github.com/powerinfo/powerinfo/pkg/powermetrics"
	"github.com/powerinfo/powerinfo/pkg/profiler"
	"github.com/powerinfo/powerinfo/pkg/registry"
	"github.com/powerinfo/powerinfo/pkg/smc"
	"github.com/powerinfo/powerinfo/pkg/snapshot"
	"github.com/powerinfo/powerinfo/pkg/sysutil"
)

// newRefresher wires the real adapters into a Refresher.
func newRefresher(conf config.Config) *snapshot.Refresher {
	runner := sysutil.NewExecRunner()
	builder := NewBuilder(runner, conf)
	return snapshot.NewRefresher(builder, sysutil.Privileged())
}

// NewBuilder assembles a Builder over the live system adapters.
func NewBuilder(runner sysutil.Runner, conf config.Config) *snapshot.Builder {
	return &snapshot.Builder{
		Registry: registry.NewConn(runner, conf.IoregPath()),
		Pmset:    pmset.NewClient(runner, conf.PmsetPath()),
		Profiler: profiler.NewClient(runner, conf.ProfilerPath(), conf.SysctlPath()),
		Metrics:  powermetrics.NewClient(runner, conf.PowermetricsPath()),
		SMC:      scopedSMC{},
		PowerAPI: battery.GetAll,
		Gate: snapshot.GateConfig{
			MinCurrentMa:  conf.VirtualTempMinCurrentMa(),
			MaxDeviationC: conf.VirtualTempMaxDeviationC(),
		},
	}
}

// scopedSMC opens a fresh SMC connection per read and releases it on every
// path, so long-running refresh cycles never leak OS handles.
type scopedSMC struct{}

func (scopedSMC) GetReadings() (*smc.Readings, error) {
	conn := smc.New()
	if err := conn.Open(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open smc connection")
	}
	defer func() {
		_ = conn.Close()
	}()
	return conn.GetReadings()
}
