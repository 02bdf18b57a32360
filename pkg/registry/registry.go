// Package registry issues point-in-time queries against the IOKit registry
// and exposes the returned property sets through typed accessors.
//
// A service that is not present on this hardware (a Mac without a discrete
// USB-C port controller, say) yields a nil PropertySet and no error. Only a
// registry that cannot be reached at all surfaces as an error.
package registry

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"howett.net/plist"

	"github.com/powerinfo/powerinfo/pkg/sysutil"
)

// Well-known service names queried by the snapshot builder.
const (
	ServiceSmartBattery   = "AppleSmartBattery"
	ServiceUSBHostPort    = "AppleUSBHostPort"
	ServiceBacklight      = "AppleARMBacklight"
	ServiceTypeCConnector = "AppleTypeCConnector"
)

// PropertySet is one service's untyped property dictionary as the registry
// reports it: values are integers, floats, strings, booleans, binary blobs,
// ordered lists, or nested dictionaries.
type PropertySet map[string]interface{}

// Conn reads registry services. The underlying reader is swappable so tests
// can serve captured property lists.
type Conn struct {
	runner    sysutil.Runner
	ioregPath string
}

// NewConn returns a Conn backed by the given runner. ioregPath defaults to
// the system ioreg when empty.
func NewConn(runner sysutil.Runner, ioregPath string) *Conn {
	if ioregPath == "" {
		ioregPath = "/usr/sbin/ioreg"
	}
	return &Conn{runner: runner, ioregPath: ioregPath}
}

// Query reads the first registry entry of the named service class and returns
// its properties. Absent service: (nil, nil). The only error condition is the
// registry reader itself failing to run, which indicates a broken host.
func (c *Conn) Query(service string) (PropertySet, error) {
	out, ok := c.runner.Run(c.ioregPath, "-r", "-c", service, "-a")
	if !ok {
		return nil, errors.Errorf("cannot open IO registry: %s failed to run", c.ioregPath)
	}

	props := decodeArchive([]byte(out))
	if props == nil {
		logrus.WithField("service", service).Debug("registry service not present")
		return nil, nil
	}
	return props, nil
}

// QueryAll returns every entry of the service class, in registry order.
func (c *Conn) QueryAll(service string) ([]PropertySet, error) {
	out, ok := c.runner.Run(c.ioregPath, "-r", "-c", service, "-a")
	if !ok {
		return nil, errors.Errorf("cannot open IO registry: %s failed to run", c.ioregPath)
	}

	var entries []interface{}
	if err := plist.NewDecoder(bytes.NewReader([]byte(out))).Decode(&entries); err != nil {
		return nil, nil
	}
	var sets []PropertySet
	for _, e := range entries {
		if m, ok := e.(map[string]interface{}); ok {
			sets = append(sets, PropertySet(m))
		}
	}
	return sets, nil
}

// decodeArchive parses an `ioreg -a` archive and returns the first entry's
// properties. Malformed or empty output is treated exactly like an absent
// service: the value cannot be used either way.
func decodeArchive(data []byte) PropertySet {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var entries []interface{}
	if err := plist.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		// Some ioreg builds emit a single dict rather than an array.
		var single map[string]interface{}
		if err2 := plist.NewDecoder(bytes.NewReader(data)).Decode(&single); err2 != nil || len(single) == 0 {
			return nil
		}
		return PropertySet(single)
	}
	for _, e := range entries {
		if m, ok := e.(map[string]interface{}); ok {
			return PropertySet(m)
		}
	}
	return nil
}
