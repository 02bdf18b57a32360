package smc

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Readings is one set of electrical measurements taken from the SMC.
type Readings struct {
	// BatteryVoltageV and BatteryAmperageMa mirror the registry's Voltage
	// and Amperage properties. Amperage is negative when discharging.
	BatteryVoltageV   float64
	BatteryAmperageMa int

	// DC-in side. Zero when no adapter is attached.
	ACVoltageV float64
	ACCurrentA float64
	ACPowerW   float64

	// Derived: positive battery power means charging.
	BatteryPowerW float64
	SystemLoadW   float64
}

// GetReadings reads the electrical keys and computes the power split.
func (c *AppleSMC) GetReadings() (*Readings, error) {
	dcinCurrent, err := c.Read(DCInCurrentKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dcin current")
	}
	dcinVoltage, err := c.Read(DCInVoltageKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dcin voltage")
	}
	battCurrent, err := c.Read(BatteryCurrentKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read battery current")
	}
	battVoltage, err := c.Read(BatteryVoltageKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read battery voltage")
	}

	r := &Readings{
		ACCurrentA:        decodeFloat(dcinCurrent.Bytes),
		ACVoltageV:        decodeFloat(dcinVoltage.Bytes),
		BatteryAmperageMa: int(decodeInt(battCurrent.Bytes)),
		BatteryVoltageV:   float64(decodeUint(battVoltage.Bytes)) / 1000.0,
	}
	r.ACPowerW = r.ACCurrentA * r.ACVoltageV
	r.BatteryPowerW = (float64(r.BatteryAmperageMa) / 1000.0) * r.BatteryVoltageV
	r.SystemLoadW = r.ACPowerW - r.BatteryPowerW
	return r, nil
}

// decodeFloat decodes a 4-byte slice into a little-endian float32.
func decodeFloat(b []byte) float64 {
	if len(b) != 4 {
		return 0
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

// decodeInt decodes a 2-byte slice into a little-endian int16.
func decodeInt(b []byte) int16 {
	if len(b) != 2 {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

// decodeUint decodes a 2-byte slice into a little-endian uint16.
func decodeUint(b []byte) uint16 {
	if len(b) != 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}
