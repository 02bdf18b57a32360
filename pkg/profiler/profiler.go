// Package profiler reads the system profiler's power and hardware reports.
// These are the authoritative sources for battery condition, firmware
// version, device name, and the machine identity block.
package profiler

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/powerinfo/powerinfo/pkg/sysutil"
	"github.com/powerinfo/powerinfo/pkg/types"
)

// Client invokes the system profiler and sysctl.
type Client struct {
	runner       sysutil.Runner
	profilerPath string
	sysctlPath   string
}

// NewClient returns a Client with default tool paths.
func NewClient(runner sysutil.Runner, profilerPath, sysctlPath string) *Client {
	if profilerPath == "" {
		profilerPath = "/usr/sbin/system_profiler"
	}
	if sysctlPath == "" {
		sysctlPath = "/usr/sbin/sysctl"
	}
	return &Client{runner: runner, profilerPath: profilerPath, sysctlPath: sysctlPath}
}

// PowerReport is the subset of the power report the snapshot uses.
type PowerReport struct {
	Condition       string
	CycleCount      *int
	MaxCapacityPct  *int
	Serial          string
	DeviceName      string
	FirmwareVersion string
	HardwareRev     string
	FullyCharged    *bool
	IsCharging      *bool
	StateOfCharge   *int

	ChargerConnected bool
	ChargerName      string
	ChargerWatts     *int
	ChargerSerial    string
	ChargerFamily    string
}

// conditionMap normalizes the profiler's health vocabulary. Unrecognized
// strings pass through untouched.
var conditionMap = map[string]string{
	"Good":          "Normal",
	"Fair":          "Replace Soon",
	"Poor":          "Service Battery",
	"Check Battery": "Service Battery",
}

// NormalizeCondition maps a raw profiler condition string to the normalized
// vocabulary and reports whether it indicates service is recommended.
func NormalizeCondition(raw string) (cond string, service bool) {
	if mapped, ok := conditionMap[raw]; ok {
		raw = mapped
	}
	return raw, raw == "Service Battery" || raw == "Replace Soon"
}

// Power fetches and parses the power report. ok=false means the profiler
// could not run; the snapshot falls back to registry-only data.
func (c *Client) Power() (PowerReport, bool) {
	out, ok := c.runner.Run(c.profilerPath, "-json", "SPPowerDataType")
	if !ok {
		return PowerReport{}, false
	}
	return ParsePower(out)
}

// ParsePower parses the JSON power report.
func ParsePower(out string) (PowerReport, bool) {
	var doc struct {
		SPPowerDataType []map[string]json.RawMessage `json:"SPPowerDataType"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return PowerReport{}, false
	}

	var rep PowerReport
	for _, item := range doc.SPPowerDataType {
		name := rawString(item["_name"])
		switch name {
		case "spbattery_information":
			parseBatteryInfo(item, &rep)
		case "sppower_ac_charger_information":
			parseChargerInfo(item, &rep)
		}
	}
	return rep, true
}

func parseBatteryInfo(item map[string]json.RawMessage, rep *PowerReport) {
	var health struct {
		Condition   string          `json:"sppower_battery_health"`
		CycleCount  *int            `json:"sppower_battery_cycle_count"`
		MaxCapacity json.RawMessage `json:"sppower_battery_health_maximum_capacity"`
	}
	if raw, ok := item["sppower_battery_health_info"]; ok {
		if json.Unmarshal(raw, &health) == nil {
			rep.Condition = health.Condition
			rep.CycleCount = health.CycleCount
			if pct, ok := rawPercent(health.MaxCapacity); ok {
				rep.MaxCapacityPct = &pct
			}
		}
	}

	var model struct {
		Serial      string `json:"sppower_battery_serial_number"`
		DeviceName  string `json:"sppower_battery_device_name"`
		Firmware    string `json:"sppower_battery_firmware_version"`
		HardwareRev string `json:"sppower_battery_hardware_revision"`
	}
	if raw, ok := item["sppower_battery_model_info"]; ok {
		if json.Unmarshal(raw, &model) == nil {
			rep.Serial = model.Serial
			rep.DeviceName = model.DeviceName
			rep.FirmwareVersion = model.Firmware
			rep.HardwareRev = model.HardwareRev
		}
	}

	var charge struct {
		FullyCharged  string `json:"sppower_battery_fully_charged"`
		IsCharging    string `json:"sppower_battery_is_charging"`
		StateOfCharge *int   `json:"sppower_battery_state_of_charge"`
	}
	if raw, ok := item["sppower_battery_charge_info"]; ok {
		if json.Unmarshal(raw, &charge) == nil {
			if charge.FullyCharged != "" {
				v := charge.FullyCharged == "TRUE"
				rep.FullyCharged = &v
			}
			if charge.IsCharging != "" {
				v := charge.IsCharging == "TRUE"
				rep.IsCharging = &v
			}
			rep.StateOfCharge = charge.StateOfCharge
		}
	}
}

func parseChargerInfo(item map[string]json.RawMessage, rep *PowerReport) {
	rep.ChargerConnected = rawString(item["sppower_battery_charger_connected"]) == "TRUE"
	rep.ChargerName = rawString(item["sppower_ac_charger_name"])
	rep.ChargerSerial = rawString(item["sppower_ac_charger_serial_number"])
	rep.ChargerFamily = rawString(item["sppower_ac_charger_family"])
	if w, ok := rawInt(item["sppower_ac_charger_watts"]); ok {
		rep.ChargerWatts = &w
	}
}

// Hardware fetches and parses the hardware identity block. Core counts come
// from sysctl because the profiler packs them into a display string.
func (c *Client) Hardware() types.SystemRecord {
	rec := types.SystemRecord{ModelIdentifier: "Unknown", Chip: "Unknown"}
	if out, ok := c.runner.Run(c.profilerPath, "-json", "SPHardwareDataType"); ok {
		ParseHardware(out, &rec)
	}
	if out, ok := c.runner.Run(c.sysctlPath, "-n", "hw.physicalcpu"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(out)); err == nil {
			rec.PhysicalCores = v
		}
	}
	if out, ok := c.runner.Run(c.sysctlPath, "-n", "hw.logicalcpu"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(out)); err == nil {
			rec.LogicalCores = v
		}
	}
	return rec
}

var memoryRe = regexp.MustCompile(`(\d+)\s*GB`)

// ParseHardware parses the JSON hardware report into rec, leaving fields
// untouched when absent.
func ParseHardware(out string, rec *types.SystemRecord) {
	var doc struct {
		SPHardwareDataType []struct {
			MachineModel string `json:"machine_model"`
			ChipType     string `json:"chip_type"`
			Memory       string `json:"physical_memory"`
		} `json:"SPHardwareDataType"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil || len(doc.SPHardwareDataType) == 0 {
		return
	}
	hw := doc.SPHardwareDataType[0]
	if hw.MachineModel != "" {
		rec.ModelIdentifier = hw.MachineModel
	}
	if hw.ChipType != "" {
		rec.Chip = hw.ChipType
	}
	if m := memoryRe.FindStringSubmatch(hw.Memory); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			rec.MemoryGB = v
		}
	}
}

func rawString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func rawInt(raw json.RawMessage) (int, bool) {
	var v int
	if json.Unmarshal(raw, &v) == nil {
		return v, true
	}
	// Some firmware reports watts as a string.
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func rawPercent(raw json.RawMessage) (int, bool) {
	s := rawString(raw)
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
