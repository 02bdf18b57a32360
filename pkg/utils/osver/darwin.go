// Package osver reads the running macOS version. The Apple Silicon registry
// layout this program reads only exists from Big Sur onward.
package osver

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Foundation
// #import <Foundation/Foundation.h>
//
// void powerinfoSystemVersion(int *major, int *minor, int *patch) {
//     NSAutoreleasePool *pool = [[NSAutoreleasePool alloc] init];
//     NSOperatingSystemVersion v = [[NSProcessInfo processInfo] operatingSystemVersion];
//     *major = (int)v.majorVersion;
//     *minor = (int)v.minorVersion;
//     *patch = (int)v.patchVersion;
//     [pool release];
// }
import "C"

import (
	"fmt"
	"sync"
)

// Version is a macOS version triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v >= other.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch >= other.Patch
}

var (
	cached   Version
	initOnce sync.Once
)

// Get returns the running system version, queried once and cached.
func Get() Version {
	initOnce.Do(func() {
		var major, minor, patch C.int
		C.powerinfoSystemVersion(&major, &minor, &patch)
		cached = Version{Major: int(major), Minor: int(minor), Patch: int(patch)}
	})
	return cached
}

// IsAtLeast reports whether the running system is at least major.minor.patch.
func IsAtLeast(major, minor, patch int) bool {
	return Get().AtLeast(Version{Major: major, Minor: minor, Patch: patch})
}
