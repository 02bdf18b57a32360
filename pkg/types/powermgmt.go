package types

// PowerMgmtRecord is the power-configuration state read from pmset, plus the
// recent event histories. Histories are already truncated to the most recent
// entries by the time they land here.
type PowerMgmtRecord struct {
	LowPowerMode    *bool   `json:"low_power_mode,omitempty"`
	HibernationMode *int    `json:"hibernation_mode,omitempty"`
	HibernationText *string `json:"hibernation_text,omitempty"`
	WakeOnLAN       *bool   `json:"wake_on_lan,omitempty"`
	PowerNap        *bool   `json:"power_nap,omitempty"`
	DisplaySleepMin *int    `json:"display_sleep_min,omitempty"`
	StandbyDelayHighSec  *int `json:"standby_delay_high_sec,omitempty"`
	StandbyDelayLowSec   *int `json:"standby_delay_low_sec,omitempty"`
	AutoPowerOffDelaySec *int `json:"auto_power_off_delay_sec,omitempty"`

	Assertions         []Assertion         `json:"assertions,omitempty"`
	PowerSourceHistory []PowerSourceEvent  `json:"power_source_history,omitempty"`
	SleepWakeHistory   []SleepWakeEvent    `json:"sleep_wake_history,omitempty"`
	ScheduledEvents    []ScheduledEvent    `json:"scheduled_events,omitempty"`
}

// Assertion is one active sleep-prevention assertion.
type Assertion struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// PowerSourceEvent is one AC/battery transition from the pmset log.
type PowerSourceEvent struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// SleepWakeEvent is one sleep, wake, or dark-wake entry from the pmset log.
type SleepWakeEvent struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// ScheduledEvent is one upcoming scheduled wake or sleep.
type ScheduledEvent struct {
	Kind   string `json:"kind"` // "wake" or "sleep"
	Time   string `json:"time"`
	Reason string `json:"reason"`
}
