package snapshot

import (
	"fmt"
	"time"

	"github.com/powerinfo/powerinfo/pkg/decode"
	"github.com/powerinfo/powerinfo/pkg/registry"
	"github.com/powerinfo/powerinfo/pkg/types"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

// Candidate locations for fields that move between top-level properties and
// the gauge sub-dictionary across firmware generations. First present and
// well-typed location wins.
var (
	fccCandidates = registry.Candidates{
		"AppleRawMaxCapacity",
		"FullChargeCapacity",
		"AppleRawFullChargeCapacity",
		"NominalChargeCapacity",
	}
	designCapCandidates = registry.Candidates{
		"DesignCapacity",
		"BatteryData.DesignCapacity",
	}
	cycleCountCandidates = registry.Candidates{
		"CycleCount",
		"BatteryData.CycleCount",
	}
	manufactureDateCandidates = registry.Candidates{
		"ManufactureDate",
		"BatteryData.ManufactureDate",
	}
	lifetimeDataCandidates = registry.Candidates{
		"LifetimeData",
		"BatteryData.LifetimeData",
	}
	chemIDCandidates = registry.Candidates{
		"BatteryData.ChemID",
		"ChemID",
	}
	serialCandidates = registry.Candidates{
		"Serial",
		"BatteryData.Serial",
		"BatterySerialNumber",
	}
	flashWriteCandidates = registry.Candidates{
		"DataFlashWriteCount",
		"BatteryData.LifetimeData.DataFlashWriteCount",
	}
	chargeLimitCandidates = registry.Candidates{
		"ChargeLimit",
		"BatteryChargeLimit",
	}
	notChargingCandidates = registry.Candidates{
		"NotChargingReason",
		"ChargerData.NotChargingReason",
	}
)

// fccFloor rejects percentage-valued capacity fields masquerading as mAh.
const fccFloor = 200

// buildBattery turns the battery service property set into a BatteryRecord.
// props may be nil (battery-less or partially initialized machine); the
// record then carries safe defaults only.
func buildBattery(props registry.PropertySet, now time.Time) types.BatteryRecord {
	var rec types.BatteryRecord
	if props == nil {
		return rec
	}

	// Capacities. Zero stays "unknown": fields are only set when present.
	if v, ok := props.Int("AppleRawCurrentCapacity"); ok {
		rec.CurrentCapacityMah = ptr.To(int(v))
	}
	if v, ok := designCapCandidates.LookupInt(props); ok {
		rec.DesignCapacityMah = int(v)
	}
	if v, ok := props.Int("NominalChargeCapacity"); ok {
		rec.NominalCapacityMah = ptr.To(int(v))
	}
	if v, ok := fccCandidates.LookupInt(props); ok && v > fccFloor {
		rec.FullChargeCapacityMah = ptr.To(int(v))
	}
	if v, ok := props.Int("MaxCapacity"); ok {
		rec.MaxCapacityRaw = ptr.To(int(v))
	}
	if v, ok := props.Int("CurrentCapacity"); ok {
		rec.CurrentCapacityRaw = ptr.To(int(v))
	}
	// Legacy firmware reports CurrentCapacity/MaxCapacity in mAh rather than
	// percent. A value past the percent range doubles as the mAh reading.
	if rec.CurrentCapacityMah == nil && rec.CurrentCapacityRaw != nil && *rec.CurrentCapacityRaw > fccFloor {
		rec.CurrentCapacityMah = ptr.To(*rec.CurrentCapacityRaw)
	}
	if v, ok := props.Int("PackReserve"); ok {
		rec.PackReserveMah = ptr.To(int(v))
	}
	if v, ok := props.Int("CellCount"); ok {
		rec.CellCount = ptr.To(int(v))
	}

	if v, ok := cycleCountCandidates.LookupInt(props); ok {
		rec.CycleCount = int(v)
	}
	if v, ok := props.Int("DesignCycleCount9C"); ok {
		rec.DesignCycleCount = ptr.To(int(v))
	}

	// Electrical. Amperage fields are unsigned magnitudes on the wire.
	if v, ok := props.Int("Voltage"); ok {
		rec.VoltageV = ptr.To(float64(v) / 1000.0)
	}
	if v, ok := props.Signed("Amperage", 32); ok {
		rec.AmperageMa = ptr.To(int(v))
	}
	if v, ok := props.Signed("InstantAmperage", 32); ok {
		rec.InstantAmpMa = ptr.To(int(v))
	}
	if bd, ok := props.Dict("BatteryData"); ok {
		if f, ok := bd.Signed("FilteredCurrent", 32); ok {
			rec.FilteredAmpMa = ptr.To(int(f))
		}
	}
	if v, ok := props.Int("Temperature"); ok {
		rec.TemperatureC = ptr.To(decode.DecikelvinToCelsius(v))
	}
	if cd, ok := props.Dict("ChargerData"); ok {
		if v, ok := cd.Int("ChargingVoltage"); ok {
			rec.ChargingVoltV = ptr.To(float64(v) / 1000.0)
		}
		if v, ok := cd.Int("ChargingCurrent"); ok {
			rec.MaxChargeAmpMa = ptr.To(int(v))
		}
	}

	// State flags.
	rec.IsCharging, _ = props.Bool("IsCharging")
	rec.ExternalConnected, _ = props.Bool("ExternalConnected")
	rec.FullyCharged, _ = props.Bool("FullyCharged")
	if v, ok := props.Bool("AtCriticalLevel"); ok {
		rec.AtCriticalLevel = ptr.To(v)
	}
	if v, ok := props.Bool("ExternalChargeCapable"); ok {
		rec.ExternalChargeCapable = ptr.To(v)
	}
	if v, ok := props.Bool("OptimizedBatteryCharging"); ok {
		rec.OptimizedCharging = ptr.To(v)
	}
	if hd, ok := props.Dict("BatteryHealthData"); ok {
		if v, ok := hd.Bool("OptimizedChargingEngaged"); ok {
			rec.OptimizedChargingEngaged = ptr.To(v)
		}
	}
	if v, ok := chargeLimitCandidates.LookupInt(props); ok {
		rec.ChargeLimitPercent = ptr.To(int(v))
	}
	if v, ok := props.Int("TimeRemaining"); ok {
		if m, valid := decode.Minutes(v); valid {
			rec.TimeRemainingMin = ptr.To(m)
		}
	}
	if v, ok := props.Int("AvgTimeToFull"); ok {
		if m, valid := decode.Minutes(v); valid {
			rec.TimeToFullMin = ptr.To(m)
		}
	}

	buildIdentity(props, now, &rec)
	rec.Diagnostics = buildDiagnostics(props)
	rec.Lifetime = buildLifetime(props, rec.CycleCount)
	rec.ShippingMode = buildShippingMode(props)
	rec.Telemetry = buildTelemetry(props)

	return rec
}

func buildIdentity(props registry.PropertySet, now time.Time, rec *types.BatteryRecord) {
	if s, ok := serialCandidates.LookupStr(props); ok {
		rec.Serial = ptr.To(s)
	}
	if s, ok := props.Str("DeviceName"); ok {
		rec.DeviceName = ptr.To(s)
	}
	if s, ok := props.Str("DeviceChemistry"); ok {
		rec.Chemistry = ptr.To(s)
	}
	if v, ok := chemIDCandidates.LookupInt(props); ok {
		rec.ChemistryID = ptr.To(decode.ChemistryID(v))
	}
	if blob, ok := props.Bytes("ManufacturerData"); ok {
		if model, revision, maker, ok := decode.ManufacturerData(blob); ok {
			if model != "" {
				rec.Model = ptr.To(model)
			}
			if revision != "" {
				rec.ModelRevision = ptr.To(revision)
			}
			if maker != "" {
				rec.Manufacturer = ptr.To(maker)
			}
		}
	}
	if v, ok := manufactureDateCandidates.LookupInt(props); ok {
		if d, valid := decode.ManufactureDate(v, now); valid {
			rec.ManufactureDate = &d
			rec.BatteryAgeDays = ptr.To(decode.AgeDays(d, now))
		}
	}
	if v, ok := props.Int("BatteryInstallDate"); ok {
		if d, valid := decode.ManufactureDate(v, now); valid {
			rec.InstallDate = ptr.To(fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day))
		}
	}
	if v, ok := props.Int("GasGaugeFirmwareVersion"); ok {
		rec.GaugeFwVersion = ptr.To(fmt.Sprintf("v%d", v))
	}
}

func buildDiagnostics(props registry.PropertySet) *types.DiagnosticsRecord {
	d := &types.DiagnosticsRecord{}
	populated := false

	bd, hasBD := props.Dict("BatteryData")
	if hasBD {
		if cells, ok := bd.IntList("CellVoltage"); ok {
			mv := make([]int, 0, len(cells))
			minV, maxV := int(cells[0]), int(cells[0])
			for _, c := range cells {
				v := int(c)
				mv = append(mv, v)
				if v < minV {
					minV = v
				}
				if v > maxV {
					maxV = v
				}
			}
			d.CellVoltagesMv = mv
			// Integer mV throughout; converting early loses the 1-2 mV
			// deltas that matter here.
			d.CellImbalanceMv = ptr.To(maxV - minV)
			populated = true
		}
		if v, ok := bd.Int("WeightedRa"); ok {
			d.InternalResistMohm = ptr.To(float64(v))
			populated = true
		}
		if v, ok := bd.Int("StateOfCharge"); ok {
			d.GaugeSocPercent = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("Qmax"); ok {
			d.QmaxMah = ptr.To(float64(v))
			populated = true
		}
		if v, ok := bd.Int("DOD0"); ok {
			d.DOD0 = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("ISS"); ok {
			d.ISS = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("RSS"); ok {
			d.RSS = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("TrueRemainingCapacity"); ok {
			d.TrueRemainingMah = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("DailyMinSoc"); ok {
			d.DailyMinSoc = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("DailyMaxSoc"); ok {
			d.DailyMaxSoc = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("ChargeAccum"); ok {
			d.ChargeAccumMah = ptr.To(int(v))
			populated = true
		}
		if v, ok := bd.Int("GaugeFlagRaw"); ok {
			d.GaugeFlagsRaw = ptr.To(int(v))
			d.GaugeFlagsText = ptr.To(decode.GaugeFlags(v))
			populated = true
		}
		if v, ok := bd.Int("MiscStatus"); ok {
			d.MiscStatusRaw = ptr.To(int(v))
			d.MiscStatusText = ptr.To(decode.MiscStatus(v))
			populated = true
		}
		if v, ok := bd.Int("PermanentFailureStatus"); ok {
			d.PermanentFailRaw = ptr.To(int(v))
			d.PermanentFailText = ptr.To(decode.PermanentFailure(v))
			populated = true
		}
	}

	if v, ok := props.Int("VirtualTemperature"); ok {
		d.VirtualTempC = ptr.To(decode.DecikelvinToCelsius(v))
		populated = true
	}
	if v, ok := props.Int("BatteryCellDisconnectCount"); ok {
		d.CellDisconnectCount = ptr.To(int(v))
		populated = true
	}
	if v, ok := props.Int("BatteryRsenseOpenCount"); ok {
		d.RsenseOpenCount = ptr.To(int(v))
		populated = true
	}
	if v, ok := flashWriteCandidates.LookupInt(props); ok {
		d.FlashWriteCount = ptr.To(int(v))
		populated = true
	}
	if v, ok := props.Int("PostChargeWaitSeconds"); ok {
		d.PostChargeWaitSec = ptr.To(int(v))
		populated = true
	}
	if v, ok := props.Int("PostDischargeWaitSeconds"); ok {
		d.PostDischargeWaitSec = ptr.To(int(v))
		populated = true
	}
	if v, ok := props.Int("BatteryInvalidWakeSeconds"); ok {
		d.InvalidWakeSec = ptr.To(int(v))
		populated = true
	}
	if v, ok := props.Int("TimeChargingThermallyLimited"); ok {
		if m, valid := decode.Minutes(v); valid {
			d.TimeThermallyLimitedMin = ptr.To(m)
			populated = true
		}
	}
	if v, ok := props.Int("SlowChargingReason"); ok {
		d.SlowChargingRaw = ptr.To(int(v))
		d.SlowChargingText = ptr.To(decode.SlowChargingReason(v))
		populated = true
	}
	if v, ok := notChargingCandidates.LookupInt(props); ok {
		d.NotChargingRaw = ptr.To(int(v))
		d.NotChargingText = ptr.To(decode.NotChargingReason(v))
		populated = true
	}
	if cd, ok := props.Dict("ChargerData"); ok {
		if v, ok := cd.Int("ChargerInhibitReason"); ok {
			d.ChargerInhibitRaw = ptr.To(int(v))
			d.ChargerInhibitText = ptr.To(decode.ChargerInhibitReason(v))
			populated = true
		}
	}

	if !populated {
		return nil
	}
	return d
}

func buildLifetime(props registry.PropertySet, cycleCount int) *types.LifetimeRecord {
	lt, ok := lifetimeDataCandidates.LookupDict(props)
	if !ok {
		return nil
	}

	rec := &types.LifetimeRecord{}
	populated := false
	if v, ok := lt.Int("TotalOperatingTime"); ok {
		rec.OperatingTimeMin = ptr.To(int(v))
		populated = true
	}
	if v, ok := lt.Int("MaximumTemperature"); ok {
		rec.MaxTemperatureC = ptr.To(decode.DecikelvinToCelsius(v))
		populated = true
	}
	if v, ok := lt.Int("MinimumTemperature"); ok {
		rec.MinTemperatureC = ptr.To(decode.DecikelvinToCelsius(v))
		populated = true
	}
	if v, ok := lt.Int("AverageTemperature"); ok {
		rec.AvgTemperatureC = ptr.To(decode.DecikelvinToCelsius(v))
		populated = true
	}
	if v, ok := lt.Int("CycleCountLastQmax"); ok {
		rec.CycleCountLastQmax = ptr.To(int(v))
		if cycleCount >= int(v) {
			rec.CyclesSinceQmax = ptr.To(cycleCount - int(v))
		}
		populated = true
	}
	if !populated {
		return nil
	}
	return rec
}

func buildShippingMode(props registry.PropertySet) *types.ShippingMode {
	cm, ok := props.Dict("CarrierMode")
	if !ok {
		return nil
	}
	status, ok := cm.Int("CarrierModeStatus")
	if !ok {
		return nil
	}
	sm := &types.ShippingMode{Active: status != 0}
	if v, ok := cm.Int("CarrierModeLowVoltage"); ok {
		sm.LowVoltageV = float64(v) / 1000.0
	}
	if v, ok := cm.Int("CarrierModeHighVoltage"); ok {
		sm.HighVoltageV = float64(v) / 1000.0
	}
	return sm
}

func buildTelemetry(props registry.PropertySet) *types.PowerTelemetry {
	ptd, ok := props.Dict("PowerTelemetryData")
	if !ok {
		return nil
	}

	t := &types.PowerTelemetry{}
	populated := false
	if v, ok := ptd.Int("SystemPowerIn"); ok {
		t.AdapterPowerInW = ptr.To(float64(v) / 1000.0)
		populated = true
	}
	if v, ok := ptd.Int("SystemVoltageIn"); ok {
		t.AdapterVoltageInV = ptr.To(float64(v) / 1000.0)
		populated = true
	}
	if v, ok := ptd.Int("SystemCurrentIn"); ok {
		t.AdapterCurrentInMa = ptr.To(int(v))
		populated = true
	}
	if v, ok := ptd.Signed("BatteryPower", 32); ok {
		t.BatteryPowerW = ptr.To(float64(v) / 1000.0)
		populated = true
	}
	if v, ok := ptd.Int("SystemLoad"); ok {
		t.SystemLoadW = ptr.To(float64(v) / 1000.0)
		populated = true
	}
	if v, ok := ptd.Int("AdapterEfficiencyLoss"); ok {
		t.AdapterLossW = ptr.To(float64(v) / 1000.0)
		populated = true
	}
	if v, ok := ptd.Int("WallEnergyEstimate"); ok {
		t.WallPowerW = ptr.To(float64(v) / 1000.0)
		populated = true
	}
	if v, ok := ptd.Int("AccumulatedSystemEnergyConsumed"); ok {
		t.AccumulatedEnergy = ptr.To(v)
		populated = true
	}
	if !populated {
		return nil
	}
	return t
}
