package config

import (
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/powerinfo/powerinfo/pkg/utils/ptr"
)

var defaultFileConfig = &RawFileConfig{
	RefreshIntervalSec: ptr.To(30),
	// The virtual-temperature estimate is only trustworthy under real load
	// with the pack inside its normal thermal envelope.
	VirtualTempMinCurrentMa:  ptr.To(100),
	VirtualTempMaxDeviationC: ptr.To(10.0),
	IoregPath:                ptr.To("/usr/sbin/ioreg"),
	PmsetPath:                ptr.To("/usr/bin/pmset"),
	ProfilerPath:             ptr.To("/usr/sbin/system_profiler"),
	SysctlPath:               ptr.To("/usr/sbin/sysctl"),
	PowermetricsPath:         ptr.To("/usr/bin/powermetrics"),
}

var _ Config = &File{}

// File is a TOML-backed Config.
type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

// RawFileConfig is the on-disk shape. Pointers distinguish "unset, use the
// default" from an explicit value.
type RawFileConfig struct {
	RefreshIntervalSec       *int     `toml:"refresh-interval-sec,omitempty"`
	VirtualTempMinCurrentMa  *int     `toml:"virtual-temp-min-current-ma,omitempty"`
	VirtualTempMaxDeviationC *float64 `toml:"virtual-temp-max-deviation-c,omitempty"`
	IoregPath                *string  `toml:"ioreg-path,omitempty"`
	PmsetPath                *string  `toml:"pmset-path,omitempty"`
	ProfilerPath             *string  `toml:"profiler-path,omitempty"`
	SysctlPath               *string  `toml:"sysctl-path,omitempty"`
	PowermetricsPath         *string  `toml:"powermetrics-path,omitempty"`
}

// NewFile loads (or initializes) the config at configPath.
func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

// NewFileFromConfig wraps an already-built RawFileConfig, for tests.
func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

func (f *File) RefreshIntervalSec() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v := ptr.Deref(f.c.RefreshIntervalSec, *defaultFileConfig.RefreshIntervalSec)
	if v < minRefreshIntervalSec {
		v = minRefreshIntervalSec
	}
	if v > maxRefreshIntervalSec {
		v = maxRefreshIntervalSec
	}
	return v
}

func (f *File) VirtualTempMinCurrentMa() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.VirtualTempMinCurrentMa, *defaultFileConfig.VirtualTempMinCurrentMa)
}

func (f *File) VirtualTempMaxDeviationC() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Sanity band: below 2 degrees the gate rejects everything, above 10 it
	// accepts garbage.
	v := ptr.Deref(f.c.VirtualTempMaxDeviationC, *defaultFileConfig.VirtualTempMaxDeviationC)
	if v < 2 {
		v = 2
	}
	if v > 10 {
		v = 10
	}
	return v
}

func (f *File) IoregPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.IoregPath, *defaultFileConfig.IoregPath)
}

func (f *File) PmsetPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.PmsetPath, *defaultFileConfig.PmsetPath)
}

func (f *File) ProfilerPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.ProfilerPath, *defaultFileConfig.ProfilerPath)
}

func (f *File) SysctlPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.SysctlPath, *defaultFileConfig.SysctlPath)
}

func (f *File) PowermetricsPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.c.PowermetricsPath, *defaultFileConfig.PowermetricsPath)
}

// Load reads the config file. A missing or empty file yields the defaults.
func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = toml.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

// Save writes the current config back to disk.
func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fp, err := os.Create(f.filepath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	err = toml.NewEncoder(fp).Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

// LogrusFields dumps the effective config for startup logging.
func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"refreshIntervalSec":       f.RefreshIntervalSec(),
		"virtualTempMinCurrentMa":  f.VirtualTempMinCurrentMa(),
		"virtualTempMaxDeviationC": f.VirtualTempMaxDeviationC(),
	}
}
