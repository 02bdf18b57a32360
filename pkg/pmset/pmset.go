// Package pmset reads power-management state from the system power
// configuration tool. Parsing is split into pure functions over captured
// output so each one is testable without the tool present.
package pmset

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/powerinfo/powerinfo/pkg/sysutil"
	"github.com/powerinfo/powerinfo/pkg/types"
	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

const (
	// maxAssertions is how many active assertions are captured per refresh.
	maxAssertions = 10
	// maxHistory is how many log entries of each kind are surfaced.
	maxHistory = 5
	// logTail bounds how much of the (very long) power log is scanned.
	logTail = 200
)

// Client invokes the power-configuration tool.
type Client struct {
	runner sysutil.Runner
	path   string
}

// NewClient returns a Client. path defaults to the system pmset.
func NewClient(runner sysutil.Runner, path string) *Client {
	if path == "" {
		path = "/usr/bin/pmset"
	}
	return &Client{runner: runner, path: path}
}

// BatteryStatus is the quick battery readout.
type BatteryStatus struct {
	PowerSource   string
	Percent       *int
	Status        string
	TimeRemaining string
}

// Battery reads the quick battery status. ok=false means the tool was
// unavailable; the snapshot simply goes without this source.
func (c *Client) Battery() (BatteryStatus, bool) {
	out, ok := c.runner.Run(c.path, "-g", "batt")
	if !ok {
		return BatteryStatus{}, false
	}
	return ParseBattery(out), true
}

// Settings reads the live power settings into a PowerMgmtRecord.
func (c *Client) Settings() (*types.PowerMgmtRecord, bool) {
	out, ok := c.runner.Run(c.path, "-g", "custom")
	if !ok {
		return nil, false
	}
	rec := ParseSettings(out)

	if aout, ok := c.runner.Run(c.path, "-g", "assertions"); ok {
		rec.Assertions = ParseAssertions(aout)
	}
	if lout, ok := c.runner.Run(c.path, "-g", "log"); ok {
		rec.PowerSourceHistory, rec.SleepWakeHistory = ParseLog(lout)
	}
	if sout, ok := c.runner.Run(c.path, "-g", "sched"); ok {
		rec.ScheduledEvents = ParseSched(sout)
	}
	return rec, true
}

var (
	sourceRe  = regexp.MustCompile(`'([^']+)'`)
	percentRe = regexp.MustCompile(`(\d+)%`)
)

// ParseBattery parses `pmset -g batt` output.
func ParseBattery(out string) BatteryStatus {
	var st BatteryStatus
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > 0 {
		if m := sourceRe.FindStringSubmatch(lines[0]); m != nil {
			st.PowerSource = m[1]
		}
	}
	if len(lines) > 1 {
		line := lines[1]
		if m := percentRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				st.Percent = ptr.To(v)
			}
		}
		parts := strings.Split(line, ";")
		if len(parts) > 1 {
			st.Status = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			t := strings.TrimSpace(parts[2])
			if i := strings.Index(t, " present:"); i >= 0 {
				t = strings.TrimSpace(t[:i])
			}
			if t != "" && t != "(no estimate)" {
				st.TimeRemaining = t
			}
		}
	}
	return st
}

// settingInt extracts one "name value" integer setting.
func settingInt(out, name string) (int, bool) {
	re := regexp.MustCompile(name + `\s+(\d+)`)
	m := re.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseSettings parses `pmset -g custom` output.
func ParseSettings(out string) *types.PowerMgmtRecord {
	rec := &types.PowerMgmtRecord{}
	if v, ok := settingInt(out, "hibernatemode"); ok {
		rec.HibernationMode = ptr.To(v)
	}
	if v, ok := settingInt(out, "womp"); ok {
		rec.WakeOnLAN = ptr.To(v == 1)
	}
	if v, ok := settingInt(out, "lowpowermode"); ok {
		rec.LowPowerMode = ptr.To(v == 1)
	}
	if v, ok := settingInt(out, "powernap"); ok {
		rec.PowerNap = ptr.To(v == 1)
	}
	if v, ok := settingInt(out, "displaysleep"); ok {
		rec.DisplaySleepMin = ptr.To(v)
	}
	if v, ok := settingInt(out, "standbydelayhigh"); ok {
		rec.StandbyDelayHighSec = ptr.To(v)
	}
	if v, ok := settingInt(out, "standbydelaylow"); ok {
		rec.StandbyDelayLowSec = ptr.To(v)
	}
	if v, ok := settingInt(out, "autopoweroffdelay"); ok {
		rec.AutoPowerOffDelaySec = ptr.To(v)
	}
	return rec
}

var assertionRe = regexp.MustCompile(`(Prevent\w+)\s+named:\s+"([^"]+)"`)

// ParseAssertions parses `pmset -g assertions`, keeping at most
// maxAssertions entries.
func ParseAssertions(out string) []types.Assertion {
	var assertions []types.Assertion
	for _, line := range strings.Split(out, "\n") {
		m := assertionRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		assertions = append(assertions, types.Assertion{Type: m[1], Name: m[2]})
		if len(assertions) >= maxAssertions {
			break
		}
	}
	return assertions
}

var timestampRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`)

// ParseLog scans the tail of `pmset -g log` for power-source transitions and
// sleep/wake events, returning the last maxHistory of each.
func ParseLog(out string) ([]types.PowerSourceEvent, []types.SleepWakeEvent) {
	lines := strings.Split(out, "\n")
	if len(lines) > logTail {
		lines = lines[len(lines)-logTail:]
	}

	var sources []types.PowerSourceEvent
	var sleeps []types.SleepWakeEvent
	for _, line := range lines {
		ts := timestampRe.FindString(line)
		if ts == "" {
			continue
		}
		switch {
		case strings.Contains(line, "Using AC"):
			sources = append(sources, types.PowerSourceEvent{Timestamp: ts, Source: "AC Power"})
		case strings.Contains(line, "Using Batt"):
			sources = append(sources, types.PowerSourceEvent{Timestamp: ts, Source: "Battery"})
		case strings.Contains(line, "DarkWake"):
			sleeps = append(sleeps, types.SleepWakeEvent{Timestamp: ts, Event: "DarkWake"})
		case strings.Contains(line, "Sleep"):
			sleeps = append(sleeps, types.SleepWakeEvent{Timestamp: ts, Event: "Sleep"})
		case strings.Contains(line, "Wake"):
			sleeps = append(sleeps, types.SleepWakeEvent{Timestamp: ts, Event: "Wake"})
		}
	}

	if len(sources) > maxHistory {
		sources = sources[len(sources)-maxHistory:]
	}
	if len(sleeps) > maxHistory {
		sleeps = sleeps[len(sleeps)-maxHistory:]
	}
	return sources, sleeps
}

// ParseSched parses `pmset -g sched` scheduled wake/sleep events.
func ParseSched(out string) []types.ScheduledEvent {
	var events []types.ScheduledEvent
	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		kind := ""
		sep := ""
		switch {
		case strings.Contains(lower, "wake at"):
			kind, sep = "wake", "wake at"
		case strings.Contains(lower, "sleep at"):
			kind, sep = "sleep", "sleep at"
		default:
			continue
		}

		idx := strings.Index(lower, sep)
		rest := strings.TrimSpace(line[idx+len(sep):])
		ev := types.ScheduledEvent{Kind: kind, Time: rest}
		if i := strings.Index(rest, " by "); i >= 0 {
			ev.Time = strings.TrimSpace(rest[:i])
			reason := strings.Trim(strings.TrimSpace(rest[i+4:]), `'"`)
			reason = strings.TrimPrefix(reason, "com.apple.alarm.user-invisible-")
			reason = strings.TrimPrefix(reason, "com.apple.")
			ev.Reason = reason
		}
		events = append(events, ev)
	}
	return events
}
