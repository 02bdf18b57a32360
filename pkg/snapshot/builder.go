// Package snapshot assembles one immutable BatterySnapshot per refresh from
// the registry, the system utilities, the SMC, and the power-source API,
// applying field-level merge precedence and computing the derived metrics.
package snapshot

import (
	"fmt"
	"time"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/powerinfo/powerinfo/pkg/decode"
	"github.com/powerinfo/powerinfo/pkg/pmset"
	"github.com/powerinfo/powerinfo/pkg/profiler"
	"github.com/powerinfo/powerinfo/pkg/registry"
	"github.com/powerinfo/powerinfo/pkg/smc"
	"github.com/powerinfo/powerinfo/pkg/types"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

// displayMaxPowerW is the backlight power estimate at 100% brightness,
// conservative for 13-16 inch panels.
const displayMaxPowerW = 5.0

// RegistrySource is the registry adapter surface the builder consumes.
type RegistrySource interface {
	Query(service string) (registry.PropertySet, error)
	QueryAll(service string) ([]registry.PropertySet, error)
}

// PmsetSource reads power-management state.
type PmsetSource interface {
	Battery() (pmset.BatteryStatus, bool)
	Settings() (*types.PowerMgmtRecord, bool)
}

// ProfilerSource reads the hardware profiler reports.
type ProfilerSource interface {
	Power() (profiler.PowerReport, bool)
	Hardware() types.SystemRecord
}

// MetricsSource samples per-component power. Only consulted when the caller
// is privileged.
type MetricsSource interface {
	Sample() *types.PowerMetrics
}

// ElectricalSource is the SMC cross-check. Readings fill registry gaps but
// never override a registry value.
type ElectricalSource interface {
	GetReadings() (*smc.Readings, error)
}

// PowerAPI is the higher-level power-source enumeration (lowest precedence
// electrical source). Matches battery.GetAll.
type PowerAPI func() ([]*battery.Battery, error)

// Builder orchestrates one snapshot build. All sources except Registry are
// optional; a nil source simply contributes nothing.
type Builder struct {
	Registry RegistrySource
	Pmset    PmsetSource
	Profiler ProfilerSource
	Metrics  MetricsSource
	SMC      ElectricalSource
	PowerAPI PowerAPI
	Gate     GateConfig
}

// Build produces a fresh snapshot. It fails only when the registry adapter
// itself is broken; every other degradation yields absent fields.
func (b *Builder) Build(privileged bool) (*types.BatterySnapshot, error) {
	now := time.Now()

	props, err := b.Registry.Query(registry.ServiceSmartBattery)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "battery registry query failed")
	}

	snap := &types.BatterySnapshot{CapturedAt: now}
	snap.Battery = buildBattery(props, now)

	b.mergeSMC(&snap.Battery)
	b.mergePowerAPI(&snap.Battery)

	var rep *profiler.PowerReport
	if b.Profiler != nil {
		if r, ok := b.Profiler.Power(); ok {
			rep = &r
		}
		snap.SystemInfo = b.Profiler.Hardware()
	} else {
		snap.SystemInfo = types.SystemRecord{ModelIdentifier: "Unknown", Chip: "Unknown"}
	}
	mergeProfiler(&snap.Battery, props, rep)

	snap.Charger = buildCharger(props, rep)
	snap.UsbPD = buildUsbPD(props)

	if privileged && b.Metrics != nil {
		snap.PowerMetrics = b.Metrics.Sample()
	}

	snap.Display = b.buildDisplay()
	snap.UsbPorts = b.buildUsbPorts()
	snap.PowerMgmt = b.buildPowerMgmt(&snap.Battery)

	gate := b.Gate
	if gate.MinCurrentMa == 0 && gate.MaxDeviationC == 0 {
		gate = DefaultGateConfig
	}
	computeDerived(&snap.Battery, snap.PowerMetrics, gate)

	if snap.PowerMetrics != nil && snap.PowerMetrics.Flow != nil && snap.Display != nil {
		snap.PowerMetrics.Flow.DisplayEstW = ptr.To(snap.Display.EstimatedPowerW)
	}

	return snap, nil
}

// mergeSMC fills electrical fields the registry left absent. Registry
// readings are finer-grained, so they always win when present.
func (b *Builder) mergeSMC(rec *types.BatteryRecord) {
	if b.SMC == nil {
		return
	}
	readings, err := b.SMC.GetReadings()
	if err != nil {
		logrus.WithError(err).Debug("smc readings unavailable")
		return
	}
	if rec.VoltageV == nil && readings.BatteryVoltageV > 0 {
		rec.VoltageV = ptr.To(readings.BatteryVoltageV)
	}
	if rec.AmperageMa == nil && readings.BatteryAmperageMa != 0 {
		rec.AmperageMa = ptr.To(readings.BatteryAmperageMa)
	}
	if rec.Telemetry == nil && readings.ACPowerW > 0 {
		rec.Telemetry = &types.PowerTelemetry{
			AdapterPowerInW:   ptr.To(readings.ACPowerW),
			AdapterVoltageInV: ptr.To(readings.ACVoltageV),
			BatteryPowerW:     ptr.To(readings.BatteryPowerW),
			SystemLoadW:       ptr.To(readings.SystemLoadW),
		}
	}
}

// mergePowerAPI is the lowest-precedence electrical fallback.
func (b *Builder) mergePowerAPI(rec *types.BatteryRecord) {
	if b.PowerAPI == nil {
		return
	}
	batteries, err := b.PowerAPI()
	if err != nil || len(batteries) == 0 {
		logrus.WithError(err).Debug("power-source API unavailable")
		return
	}
	bat := batteries[0] // Apple Silicon MacBooks only have one battery.
	if rec.VoltageV == nil && bat.Voltage > 0 {
		rec.VoltageV = ptr.To(bat.Voltage)
	}
	if !rec.IsCharging && bat.State == battery.Charging {
		rec.IsCharging = true
	}
}

// mergeProfiler applies the profiler-wins fields: condition, firmware
// version, device name. The registry supplies condition only when the
// profiler's report is missing it.
func mergeProfiler(rec *types.BatteryRecord, props registry.PropertySet, rep *profiler.PowerReport) {
	if rep != nil && rep.Condition != "" {
		cond, service := profiler.NormalizeCondition(rep.Condition)
		rec.Condition = ptr.To(cond)
		rec.ServiceRecommended = service
	} else if props != nil {
		if s, ok := props.Str("BatteryHealth"); ok {
			cond, service := profiler.NormalizeCondition(s)
			rec.Condition = ptr.To(cond)
			rec.ServiceRecommended = service
		}
	}

	if rep == nil {
		return
	}
	if rep.FirmwareVersion != "" {
		rec.FirmwareVersion = ptr.To(rep.FirmwareVersion)
	}
	if rep.DeviceName != "" {
		rec.DeviceName = ptr.To(rep.DeviceName)
	}
	if rec.Serial == nil && rep.Serial != "" {
		rec.Serial = ptr.To(rep.Serial)
	}
	if rec.ModelRevision == nil && rep.HardwareRev != "" {
		rec.ModelRevision = ptr.To(rep.HardwareRev)
	}
	if rec.CycleCount == 0 && rep.CycleCount != nil {
		rec.CycleCount = *rep.CycleCount
	}
}

// buildDisplay reads backlight brightness and scales the panel power
// estimate linearly with it.
func (b *Builder) buildDisplay() *types.DisplayRecord {
	props, err := b.Registry.Query(registry.ServiceBacklight)
	if err != nil || props == nil {
		return nil
	}
	params, ok := props.Dict("IODisplayParameters")
	if !ok {
		return nil
	}
	bri, ok := params.Dict("brightness")
	if !ok {
		return nil
	}
	maxV, okMax := bri.Int("max")
	value, okVal := bri.Int("value")
	if !okMax || !okVal || maxV <= 0 {
		return nil
	}
	pct := float64(value) / float64(maxV) * 100
	return &types.DisplayRecord{
		BrightnessPercent: pct,
		EstimatedPowerW:   pct / 100 * displayMaxPowerW,
	}
}

func (b *Builder) buildUsbPorts() *types.UsbPortRecord {
	props, err := b.Registry.Query(registry.ServiceUSBHostPort)
	if err != nil || props == nil {
		return nil
	}
	rec := &types.UsbPortRecord{}
	populated := false
	if v, ok := props.Int("kUSBWakePortCurrentLimit"); ok {
		rec.WakeCurrentMa = ptr.To(int(v))
		populated = true
	}
	if v, ok := props.Int("kUSBSleepPortCurrentLimit"); ok {
		rec.SleepCurrentMa = ptr.To(int(v))
		populated = true
	}
	if !populated {
		return nil
	}
	return rec
}

func (b *Builder) buildPowerMgmt(rec *types.BatteryRecord) *types.PowerMgmtRecord {
	if b.Pmset == nil {
		return nil
	}
	mgmt, ok := b.Pmset.Settings()
	if !ok {
		return nil
	}
	if mgmt.HibernationMode != nil {
		mgmt.HibernationText = ptr.To(decode.HibernationMode(int64(*mgmt.HibernationMode)))
	}

	// The pmset battery line is the last-resort source for time remaining.
	if rec.TimeRemainingMin == nil {
		if st, ok := b.Pmset.Battery(); ok && st.TimeRemaining != "" {
			if m, valid := parseClockMinutes(st.TimeRemaining); valid {
				rec.TimeRemainingMin = ptr.To(m)
			}
		}
	}
	return mgmt
}

// parseClockMinutes parses the "H:MM" remaining-time format.
func parseClockMinutes(s string) (int, bool) {
	var h, m int
	n, err := fmt.Sscanf(s, "%d:%d", &h, &m)
	if err != nil || n != 2 || h < 0 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
