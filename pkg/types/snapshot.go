// Package types holds the snapshot record tree shared between the snapshot
// builder, the daemon, the client, and the formatters.
//
// Every record is built fresh by one Build call and never mutated afterwards.
// Fields whose "no data" state must be distinguishable from a legitimate zero
// reading are pointers; nil always means "source did not provide this".
package types

import "time"

// BatterySnapshot is the root aggregate produced by one refresh. The previous
// snapshot is discarded wholesale, never patched.
type BatterySnapshot struct {
	Battery      BatteryRecord    `json:"battery"`
	Charger      *ChargerRecord   `json:"charger,omitempty"`
	PowerMetrics *PowerMetrics    `json:"power_metrics,omitempty"`
	SystemInfo   SystemRecord     `json:"system_info"`
	UsbPD        *UsbPdRecord     `json:"usb_pd,omitempty"`
	Display      *DisplayRecord   `json:"display,omitempty"`
	UsbPorts     *UsbPortRecord   `json:"usb_ports,omitempty"`
	PowerMgmt    *PowerMgmtRecord `json:"power_mgmt,omitempty"`
	CapturedAt   time.Time        `json:"captured_at"`
}

// BatteryRecord holds everything known about the battery pack itself.
type BatteryRecord struct {
	// Capacity, all mAh. Zero means unknown, never "empty".
	CurrentCapacityMah *int `json:"current_capacity_mah,omitempty"`
	DesignCapacityMah  int  `json:"design_capacity_mah"`
	NominalCapacityMah *int `json:"nominal_capacity_mah,omitempty"`
	// FullChargeCapacityMah is the battery's actual maximum (FCC).
	FullChargeCapacityMah *int `json:"full_charge_capacity_mah,omitempty"`
	// MaxCapacityRaw and CurrentCapacityRaw are the raw MaxCapacity /
	// CurrentCapacity properties: 0-100 percentages on Apple Silicon, mAh on
	// older firmware. Kept raw so the percentage fallback chain can tell
	// which.
	MaxCapacityRaw     *int `json:"max_capacity_raw,omitempty"`
	CurrentCapacityRaw *int `json:"current_capacity_raw,omitempty"`
	PackReserveMah     *int `json:"pack_reserve_mah,omitempty"`
	CellCount          *int `json:"cell_count,omitempty"`

	CycleCount       int  `json:"cycle_count"`
	DesignCycleCount *int `json:"design_cycle_count,omitempty"`

	// Electrical readings.
	VoltageV       *float64 `json:"voltage_v,omitempty"`
	AmperageMa     *int     `json:"amperage_ma,omitempty"`
	InstantAmpMa   *int     `json:"instant_amperage_ma,omitempty"`
	FilteredAmpMa  *int     `json:"filtered_amperage_ma,omitempty"`
	TemperatureC   *float64 `json:"temperature_c,omitempty"`
	ChargingVoltV  *float64 `json:"charging_voltage_v,omitempty"`
	MaxChargeAmpMa *int     `json:"max_charge_current_ma,omitempty"`

	// State.
	IsCharging               bool  `json:"is_charging"`
	ExternalConnected        bool  `json:"external_connected"`
	FullyCharged             bool  `json:"fully_charged"`
	AtCriticalLevel          *bool `json:"at_critical_level,omitempty"`
	ExternalChargeCapable    *bool `json:"external_charge_capable,omitempty"`
	OptimizedCharging        *bool `json:"optimized_charging,omitempty"`
	OptimizedChargingEngaged *bool `json:"optimized_charging_engaged,omitempty"`
	ChargeLimitPercent       *int  `json:"charge_limit_percent,omitempty"`
	TimeRemainingMin         *int  `json:"time_remaining_min,omitempty"`
	TimeToFullMin            *int  `json:"time_to_full_min,omitempty"`

	// Identity.
	Manufacturer    *string          `json:"manufacturer,omitempty"`
	Serial          *string          `json:"serial,omitempty"`
	Model           *string          `json:"model,omitempty"`
	ModelRevision   *string          `json:"model_revision,omitempty"`
	Chemistry       *string          `json:"chemistry,omitempty"`
	ChemistryID     *string          `json:"chemistry_id,omitempty"`
	DeviceName      *string          `json:"device_name,omitempty"`
	FirmwareVersion *string          `json:"firmware_version,omitempty"`
	GaugeFwVersion  *string          `json:"gauge_fw_version,omitempty"`
	ManufactureDate *ManufactureDate `json:"manufacture_date,omitempty"`
	BatteryAgeDays  *int             `json:"battery_age_days,omitempty"`
	InstallDate     *string          `json:"install_date,omitempty"`

	// Condition is the normalized health vocabulary: Normal, Replace Soon,
	// Service Battery, or an unrecognized profiler string passed through.
	Condition          *string `json:"condition,omitempty"`
	ServiceRecommended bool    `json:"service_recommended"`

	Diagnostics  *DiagnosticsRecord `json:"diagnostics,omitempty"`
	Lifetime     *LifetimeRecord    `json:"lifetime,omitempty"`
	ShippingMode *ShippingMode      `json:"shipping_mode,omitempty"`
	Telemetry    *PowerTelemetry    `json:"telemetry,omitempty"`

	Derived DerivedMetrics `json:"derived"`
}

// ManufactureDate is the decoded vendor date blob.
type ManufactureDate struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Day   int    `json:"day"`
	Lot   string `json:"lot,omitempty"`
}

// DiagnosticsRecord holds fuel-gauge level diagnostics. Only populated from a
// privileged registry read; every field is optional because availability
// varies across battery firmware generations.
type DiagnosticsRecord struct {
	CellVoltagesMv     []int    `json:"cell_voltages_mv,omitempty"`
	CellImbalanceMv    *int     `json:"cell_imbalance_mv,omitempty"`
	InternalResistMohm *float64 `json:"internal_resistance_mohm,omitempty"`
	GaugeSocPercent    *int     `json:"gauge_soc_percent,omitempty"`
	DailyMinSoc        *int     `json:"daily_min_soc,omitempty"`
	DailyMaxSoc        *int     `json:"daily_max_soc,omitempty"`
	TrueRemainingMah   *int     `json:"true_remaining_mah,omitempty"`
	QmaxMah            *float64 `json:"qmax_mah,omitempty"`
	DOD0               *int     `json:"dod0,omitempty"`
	ISS                *int     `json:"iss,omitempty"`
	RSS                *int     `json:"rss,omitempty"`
	ChargeAccumMah     *int     `json:"charge_accum_mah,omitempty"`
	VirtualTempC       *float64 `json:"virtual_temperature_c,omitempty"`

	CellDisconnectCount *int `json:"cell_disconnect_count,omitempty"`
	RsenseOpenCount     *int `json:"rsense_open_count,omitempty"`
	FlashWriteCount     *int `json:"flash_write_count,omitempty"`

	// Raw status registers with decoded text. Gauge flags follow a documented
	// fuel-gauge layout; misc status and charger configuration bits are
	// undocumented so only set bit positions are reported.
	GaugeFlagsRaw     *int    `json:"gauge_flags_raw,omitempty"`
	GaugeFlagsText    *string `json:"gauge_flags_text,omitempty"`
	MiscStatusRaw     *int    `json:"misc_status_raw,omitempty"`
	MiscStatusText    *string `json:"misc_status_text,omitempty"`
	PermanentFailRaw  *int    `json:"permanent_failure_raw,omitempty"`
	PermanentFailText *string `json:"permanent_failure_text,omitempty"`

	PostChargeWaitSec    *int `json:"post_charge_wait_sec,omitempty"`
	PostDischargeWaitSec *int `json:"post_discharge_wait_sec,omitempty"`
	InvalidWakeSec       *int `json:"invalid_wake_sec,omitempty"`

	TimeThermallyLimitedMin *int    `json:"time_thermally_limited_min,omitempty"`
	SlowChargingRaw         *int    `json:"slow_charging_raw,omitempty"`
	SlowChargingText        *string `json:"slow_charging_text,omitempty"`
	NotChargingRaw          *int    `json:"not_charging_raw,omitempty"`
	NotChargingText         *string `json:"not_charging_text,omitempty"`
	ChargerInhibitRaw       *int    `json:"charger_inhibit_raw,omitempty"`
	ChargerInhibitText      *string `json:"charger_inhibit_text,omitempty"`
}

// LifetimeRecord is the gauge's lifetime statistics block.
type LifetimeRecord struct {
	OperatingTimeMin   *int     `json:"operating_time_min,omitempty"`
	MaxTemperatureC    *float64 `json:"max_temperature_c,omitempty"`
	MinTemperatureC    *float64 `json:"min_temperature_c,omitempty"`
	AvgTemperatureC    *float64 `json:"avg_temperature_c,omitempty"`
	CycleCountLastQmax *int     `json:"cycle_count_last_qmax,omitempty"`
	CyclesSinceQmax    *int     `json:"cycles_since_qmax,omitempty"`
}

// ShippingMode (CarrierMode) keeps the pack in a safe voltage band in transit.
type ShippingMode struct {
	Active       bool    `json:"active"`
	LowVoltageV  float64 `json:"low_voltage_v"`
	HighVoltageV float64 `json:"high_voltage_v"`
}

// PowerTelemetry is the registry's real-time power telemetry block, mW/mV/mA
// converted to W/V/mA.
type PowerTelemetry struct {
	AdapterPowerInW    *float64 `json:"adapter_power_in_w,omitempty"`
	AdapterVoltageInV  *float64 `json:"adapter_voltage_in_v,omitempty"`
	AdapterCurrentInMa *int     `json:"adapter_current_in_ma,omitempty"`
	BatteryPowerW      *float64 `json:"battery_power_w,omitempty"`
	SystemLoadW        *float64 `json:"system_load_w,omitempty"`
	AdapterLossW       *float64 `json:"adapter_loss_w,omitempty"`
	WallPowerW         *float64 `json:"wall_power_w,omitempty"`
	AccumulatedEnergy  *int64   `json:"accumulated_energy_raw,omitempty"`
}

// DerivedMetrics are computed, never read from any source.
type DerivedMetrics struct {
	// PercentKnown is false when no fallback strategy could resolve a
	// percentage; Percent is then 0 and must not be shown.
	Percent      int  `json:"percent"`
	PercentKnown bool `json:"percent_known"`

	// HealthPercent is nil when design capacity is unknown.
	HealthPercent         *int         `json:"health_percent,omitempty"`
	LifespanUsedPct       *float64     `json:"lifespan_used_pct,omitempty"`
	HealthScore           *HealthScore `json:"health_score,omitempty"`
	EstCyclesTo80         *int         `json:"est_cycles_to_80,omitempty"`
	BatteryChargePowerW   *float64     `json:"battery_charge_power_w,omitempty"`
	FastCharging          bool         `json:"fast_charging"`
	TrickleCharging       bool         `json:"trickle_charging"`
	ChargingEfficiencyPct *float64     `json:"charging_efficiency_pct,omitempty"`
	AdapterEfficiencyPct  *float64     `json:"adapter_efficiency_pct,omitempty"`
	// VirtualTempC is only set when the reliability gate passes.
	VirtualTempC *float64 `json:"virtual_temp_c,omitempty"`
}

// HealthScore is the composite 0-100 battery grade.
type HealthScore struct {
	Score       int    `json:"score"`
	Grade       string `json:"grade"`
	Description string `json:"description"`
}

// ChargerRecord describes the connected external power adapter.
type ChargerRecord struct {
	Connected   bool    `json:"connected"`
	IsCharging  bool    `json:"is_charging"`
	IsWireless  *bool   `json:"is_wireless,omitempty"`
	Watts       *int    `json:"watts,omitempty"`
	Description *string `json:"description,omitempty"`
	Serial      *string `json:"serial,omitempty"`

	// Negotiated contract.
	VoltageV           *float64      `json:"voltage_v,omitempty"`
	CurrentA           *float64      `json:"current_a,omitempty"`
	ActiveProfileIndex *int          `json:"active_profile_index,omitempty"`
	ActiveProfile      *PowerProfile `json:"active_profile,omitempty"`

	// Identity decoded from vendor codes.
	FamilyCode      *int64  `json:"family_code,omitempty"`
	FamilyText      *string `json:"family_text,omitempty"`
	AdapterID       *int    `json:"adapter_id,omitempty"`
	AdapterText     *string `json:"adapter_text,omitempty"`
	BestPortIndex   *int    `json:"best_port_index,omitempty"`
	MaxSystemPowerW *int    `json:"max_system_power_w,omitempty"`

	// SourceCapabilities is ordered by negotiation priority.
	SourceCapabilities []PowerProfile `json:"source_capabilities,omitempty"`

	ConfigRaw  *int    `json:"config_raw,omitempty"`
	ConfigText *string `json:"config_text,omitempty"`
}

// PowerProfile is one decoded PDO. Profile numbers are 1-based and
// order-significant. For variable (PPS) profiles VoltageV carries the maximum
// and MinVoltageV/MaxVoltageV bound the range.
type PowerProfile struct {
	Number      int     `json:"number"`
	VoltageV    float64 `json:"voltage_v"`
	CurrentA    float64 `json:"current_a"`
	PowerW      float64 `json:"power_w"`
	IsVariable  bool    `json:"is_variable"`
	MinVoltageV float64 `json:"min_voltage_v,omitempty"`
	MaxVoltageV float64 `json:"max_voltage_v,omitempty"`
}

// RequestObject is the decoded active contract (RDO).
type RequestObject struct {
	Raw               uint32  `json:"raw"`
	ObjectPosition    int     `json:"object_position"`
	OperatingCurrentA float64 `json:"operating_current_a"`
	MaxCurrentA       float64 `json:"max_current_a"`
}

// UsbPdRecord describes the active USB-C PD port controller.
type UsbPdRecord struct {
	SpecVersion *string        `json:"spec_version,omitempty"`
	PowerRole   *string        `json:"power_role,omitempty"`
	DataRole    *string        `json:"data_role,omitempty"`
	ActiveRDO   *RequestObject `json:"active_rdo,omitempty"`
	FwVersion   *string        `json:"fw_version,omitempty"`
	NumPDOs     *int           `json:"num_pdos,omitempty"`
	NumEprPDOs  *int           `json:"num_epr_pdos,omitempty"`
	PortMode    *string        `json:"port_mode,omitempty"`
	PowerState  *string        `json:"power_state,omitempty"`
	MaxPowerW   *float64       `json:"max_power_w,omitempty"`
	// SinkCapabilities is ordered by negotiation priority.
	SinkCapabilities []PowerProfile `json:"sink_capabilities,omitempty"`
}

// SystemRecord is the hardware identity, resolved once per snapshot.
// Fields fall back to "Unknown" / zero rather than failing the build.
type SystemRecord struct {
	ModelIdentifier string `json:"model_identifier"`
	Chip            string `json:"chip"`
	MemoryGB        int    `json:"memory_gb"`
	PhysicalCores   int    `json:"physical_cores"`
	LogicalCores    int    `json:"logical_cores"`
}

// PowerMetrics is the privileged sampler's per-component breakdown.
// TotalW is always the sum of the four components.
type PowerMetrics struct {
	CPUPowerW       float64 `json:"cpu_power_w"`
	GPUPowerW       float64 `json:"gpu_power_w"`
	ANEPowerW       float64 `json:"ane_power_w"`
	DRAMPowerW      float64 `json:"dram_power_w"`
	TotalW          float64 `json:"total_w"`
	ThermalPressure string  `json:"thermal_pressure"`

	Flow *PowerFlow `json:"flow,omitempty"`
}

// PowerFlow is the derived real-time power budget.
type PowerFlow struct {
	AdapterInW   float64  `json:"adapter_in_w"`
	BatteryFlowW float64  `json:"battery_flow_w"`
	SystemLoadW  float64  `json:"system_load_w"`
	DisplayEstW  *float64 `json:"display_est_w,omitempty"`
	OtherW       *float64 `json:"other_w,omitempty"`
}

// DisplayRecord carries backlight telemetry.
type DisplayRecord struct {
	BrightnessPercent float64 `json:"brightness_percent"`
	EstimatedPowerW   float64 `json:"estimated_power_w"`
}

// UsbPortRecord holds the host port current limits.
type UsbPortRecord struct {
	WakeCurrentMa  *int `json:"wake_current_ma,omitempty"`
	SleepCurrentMa *int `json:"sleep_current_ma,omitempty"`
}
