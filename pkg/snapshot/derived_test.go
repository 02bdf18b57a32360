package snapshot

import (
	"math"
	"testing"

	"github.com/powerinfo/powerinfo/pkg/types"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name   string
		rec    types.BatteryRecord
		want   int
		wantOK bool
	}{
		{
			name: "raw fields are percentages",
			rec: types.BatteryRecord{
				MaxCapacityRaw:        ptr.To(100),
				CurrentCapacityRaw:    ptr.To(74),
				CurrentCapacityMah:    ptr.To(3210),
				FullChargeCapacityMah: ptr.To(4382),
			},
			want:   74,
			wantOK: true,
		},
		{
			name: "fcc ratio fallback",
			rec: types.BatteryRecord{
				CurrentCapacityMah:    ptr.To(3210),
				FullChargeCapacityMah: ptr.To(4382),
			},
			want:   73,
			wantOK: true,
		},
		{
			name: "legacy max capacity in mah",
			rec: types.BatteryRecord{
				MaxCapacityRaw:     ptr.To(4629),
				CurrentCapacityMah: ptr.To(4629),
			},
			want:   100,
			wantOK: true,
		},
		{
			name: "ratio clamped to 100",
			rec: types.BatteryRecord{
				CurrentCapacityMah:    ptr.To(4500),
				FullChargeCapacityMah: ptr.To(4382),
			},
			want:   100,
			wantOK: true,
		},
		{
			name:   "nothing available",
			rec:    types.BatteryRecord{},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := percentage(&tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("percentage() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("percentage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeDerivedFullPack(t *testing.T) {
	rec := types.BatteryRecord{
		MaxCapacityRaw:        ptr.To(100),
		CurrentCapacityRaw:    ptr.To(100),
		CurrentCapacityMah:    ptr.To(4436),
		FullChargeCapacityMah: ptr.To(4436),
		DesignCapacityMah:     4629,
		CycleCount:            187,
		DesignCycleCount:      ptr.To(1000),
	}
	computeDerived(&rec, nil, DefaultGateConfig)

	d := rec.Derived
	if !d.PercentKnown || d.Percent != 100 {
		t.Errorf("Percent = %d (known %v), want 100", d.Percent, d.PercentKnown)
	}
	if ptr.Deref(d.HealthPercent, -1) != 96 {
		t.Errorf("HealthPercent = %v, want 96", d.HealthPercent)
	}
	if math.Abs(ptr.Deref(d.LifespanUsedPct, -1)-18.7) > 1e-9 {
		t.Errorf("LifespanUsedPct = %v, want 18.7", d.LifespanUsedPct)
	}
	if d.HealthScore == nil {
		t.Fatal("HealthScore missing")
	}
	if d.HealthScore.Grade != "A+" {
		t.Errorf("Grade = %q, want A+", d.HealthScore.Grade)
	}
	if ptr.Deref(d.EstCyclesTo80, -1) != 748 {
		t.Errorf("EstCyclesTo80 = %v, want 748", d.EstCyclesTo80)
	}
}

func TestHealthScoreGrades(t *testing.T) {
	tests := []struct {
		name      string
		healthPct int
		cycles    int
		imbalance *int
		wantGrade string
	}{
		{name: "new pack", healthPct: 100, cycles: 10, wantGrade: "A+"},
		{name: "lightly used", healthPct: 92, cycles: 250, wantGrade: "A"},
		{name: "mid life", healthPct: 78, cycles: 450, imbalance: ptr.To(60), wantGrade: "B"},
		{name: "worn", healthPct: 78, cycles: 700, imbalance: ptr.To(60), wantGrade: "C"},
		{name: "tired", healthPct: 65, cycles: 900, imbalance: ptr.To(80), wantGrade: "D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := healthScore(tt.healthPct, tt.cycles, tt.imbalance, nil)
			if got.Grade != tt.wantGrade {
				t.Errorf("grade = %q (score %d), want %q", got.Grade, got.Score, tt.wantGrade)
			}
		})
	}
}

func TestHealthScoreMonotonicInCapacity(t *testing.T) {
	prev := healthScore(100, 200, nil, nil).Score
	for pct := 99; pct >= 50; pct-- {
		cur := healthScore(pct, 200, nil, nil).Score
		if cur > prev {
			t.Fatalf("score rose from %d to %d as capacity health fell to %d%%", prev, cur, pct)
		}
		prev = cur
	}
}

func TestHealthScoreMissingDiagnostics(t *testing.T) {
	withAll := healthScore(90, 200, ptr.To(5), ptr.To(60.0))
	without := healthScore(90, 200, nil, nil)
	if without.Score != withAll.Score {
		t.Errorf("missing diagnostics scored %d, complete healthy diagnostics %d; absence must not penalize",
			without.Score, withAll.Score)
	}
}

func TestCyclesTo80(t *testing.T) {
	if got := ptr.Deref(cyclesTo80(96, 187), -1); got != 748 {
		t.Errorf("cyclesTo80(96, 187) = %d, want 748", got)
	}
	if got := ptr.Deref(cyclesTo80(80, 500), -1); got != 0 {
		t.Errorf("cyclesTo80(80, 500) = %d, want 0", got)
	}
	if got := ptr.Deref(cyclesTo80(75, 900), -1); got != 0 {
		t.Errorf("cyclesTo80(75, 900) = %d, want 0", got)
	}
	if cyclesTo80(100, 300) != nil {
		t.Error("no measurable wear should project nil, not infinity")
	}
}

func TestChargingPower(t *testing.T) {
	rec := types.BatteryRecord{
		VoltageV:   ptr.To(12.5),
		AmperageMa: ptr.To(2000),
		Telemetry: &types.PowerTelemetry{
			AdapterPowerInW: ptr.To(30.0),
			AdapterLossW:    ptr.To(1.5),
		},
	}
	var d types.DerivedMetrics
	chargingPower(&rec, &d)

	if math.Abs(ptr.Deref(d.BatteryChargePowerW, 0)-25) > 1e-9 {
		t.Errorf("BatteryChargePowerW = %v, want 25", d.BatteryChargePowerW)
	}
	if !d.FastCharging || d.TrickleCharging {
		t.Errorf("fast/trickle = %v/%v, want fast only", d.FastCharging, d.TrickleCharging)
	}
	if math.Abs(ptr.Deref(d.ChargingEfficiencyPct, 0)-25.0/30*100) > 1e-9 {
		t.Errorf("ChargingEfficiencyPct = %v", d.ChargingEfficiencyPct)
	}
	if math.Abs(ptr.Deref(d.AdapterEfficiencyPct, 0)-95) > 1e-9 {
		t.Errorf("AdapterEfficiencyPct = %v, want 95", d.AdapterEfficiencyPct)
	}
}

func TestChargingPowerTrickle(t *testing.T) {
	rec := types.BatteryRecord{
		VoltageV:   ptr.To(4.3),
		AmperageMa: ptr.To(1000),
	}
	var d types.DerivedMetrics
	chargingPower(&rec, &d)
	if d.FastCharging || !d.TrickleCharging {
		t.Errorf("fast/trickle = %v/%v, want trickle only", d.FastCharging, d.TrickleCharging)
	}
}

func TestChargingPowerDischarging(t *testing.T) {
	rec := types.BatteryRecord{
		VoltageV:   ptr.To(12.0),
		AmperageMa: ptr.To(-800),
	}
	var d types.DerivedMetrics
	chargingPower(&rec, &d)
	if d.BatteryChargePowerW != nil || d.FastCharging || d.TrickleCharging {
		t.Error("discharge must not report charge power")
	}
}

func TestGatedVirtualTemp(t *testing.T) {
	base := func() types.BatteryRecord {
		return types.BatteryRecord{
			IsCharging:   true,
			TemperatureC: ptr.To(30.0),
			AmperageMa:   ptr.To(1500),
			Diagnostics:  &types.DiagnosticsRecord{VirtualTempC: ptr.To(33.0)},
		}
	}
	gate := DefaultGateConfig

	tests := []struct {
		name   string
		mutate func(*types.BatteryRecord)
		want   *float64
	}{
		{name: "charging within envelope", mutate: func(r *types.BatteryRecord) {}, want: ptr.To(33.0)},
		{
			name: "discharging under load",
			mutate: func(r *types.BatteryRecord) {
				r.IsCharging = false
				r.AmperageMa = ptr.To(-450)
			},
			want: ptr.To(33.0),
		},
		{
			name: "idle battery",
			mutate: func(r *types.BatteryRecord) {
				r.IsCharging = false
				r.AmperageMa = ptr.To(-20)
			},
		},
		{
			name: "deviation too small",
			mutate: func(r *types.BatteryRecord) {
				r.Diagnostics.VirtualTempC = ptr.To(30.5)
			},
		},
		{
			name: "large deviation still inside window",
			mutate: func(r *types.BatteryRecord) {
				r.Diagnostics.VirtualTempC = ptr.To(38.0)
			},
			want: ptr.To(38.0),
		},
		{
			name: "deviation too large",
			mutate: func(r *types.BatteryRecord) {
				r.Diagnostics.VirtualTempC = ptr.To(42.0)
			},
		},
		{
			name: "physically implausible",
			mutate: func(r *types.BatteryRecord) {
				r.Diagnostics.VirtualTempC = ptr.To(95.0)
			},
		},
		{
			name: "no sensed temperature to compare",
			mutate: func(r *types.BatteryRecord) {
				r.TemperatureC = nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base()
			tt.mutate(&rec)
			got := gatedVirtualTemp(&rec, gate)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("gatedVirtualTemp() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("gatedVirtualTemp() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestPowerFlow(t *testing.T) {
	pm := &types.PowerMetrics{TotalW: 8}

	charging := types.BatteryRecord{
		VoltageV:          ptr.To(12.5),
		AmperageMa:        ptr.To(2000),
		ExternalConnected: true,
	}
	flow := powerFlow(&charging, pm)
	if math.Abs(flow.AdapterInW-33) > 1e-9 {
		t.Errorf("charging AdapterInW = %v, want 33", flow.AdapterInW)
	}
	if math.Abs(flow.SystemLoadW-8) > 1e-9 {
		t.Errorf("charging SystemLoadW = %v, want 8", flow.SystemLoadW)
	}

	discharging := types.BatteryRecord{
		VoltageV:   ptr.To(12.0),
		AmperageMa: ptr.To(-1500),
	}
	flow = powerFlow(&discharging, pm)
	if flow.AdapterInW != 0 {
		t.Errorf("discharging AdapterInW = %v, want 0", flow.AdapterInW)
	}
	if math.Abs(flow.SystemLoadW-18) > 1e-9 {
		t.Errorf("discharging SystemLoadW = %v, want 18", flow.SystemLoadW)
	}
	if math.Abs(ptr.Deref(flow.OtherW, 0)-10) > 1e-9 {
		t.Errorf("OtherW = %v, want 10", flow.OtherW)
	}
}
