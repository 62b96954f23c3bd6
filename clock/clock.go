// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package clock provides a wallclock time that tracks monotonic time,
// together with NTP-64 conversion and an interruption-safe sleep.
package clock

import (
	"sync"
	"time"
)

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const ntpEpochOffset = 2208988800

var (
	initOnce   sync.Once
	startOffet float64 // wallclock - monotonic, sampled once
)

// initOffset samples the realtime and monotonic clocks once and records
// their difference, so that later calls can derive a wallclock-equivalent
// reading purely from the monotonic clock. Safe under concurrent first
// calls.
func initOffset() {
	initOnce.Do(func() {
		wall := float64(time.Now().UnixNano()) / 1e9
		mono := monotonicSeconds()
		startOffet = wall - mono
	})
}

// monotonicSeconds returns a monotonic reading in fractional seconds.
// time.Now() on every supported Go platform already carries a monotonic
// reading alongside the wallclock one; Sub against a fixed reference
// strips the monotonic component out in a portable way.
var monotonicRef = time.Now()

func monotonicSeconds() float64 {
	return time.Since(monotonicRef).Seconds()
}

// Time is a scalar seconds-since-epoch value with microsecond resolution,
// suitable for wallclock comparisons, delay arithmetic and NTP reports.
type Time struct {
	t float64
}

// New returns a Time representing t seconds since the Unix epoch.
func New(t float64) Time {
	return Time{t: t}
}

// FromDuration builds a Time out of seconds and a microsecond remainder,
// matching the (seconds, microseconds) constructor of the reference
// implementation.
func FromDuration(seconds int64, microseconds uint32) Time {
	if seconds >= 0 {
		return Time{t: float64(seconds) + 1e-6*float64(microseconds)}
	}
	possec := float64(-seconds)
	return Time{t: -(possec + 1e-6*float64(microseconds))}
}

// Now returns the current time. Its rate tracks the monotonic clock: once
// initOffset has run, wallclock jumps (NTP step adjustments, clock_settime)
// do not affect the value returned here, only its initial anchor does.
func Now() Time {
	initOffset()
	return Time{t: monotonicSeconds() + startOffet}
}

// Seconds returns the integral number of seconds stored in t.
func (t Time) Seconds() int64 {
	return int64(t.t)
}

// Microseconds returns the sub-second part of t, in microseconds.
func (t Time) Microseconds() uint32 {
	var sec float64
	if t.t >= 0 {
		sec = float64(int64(t.t))
		us := uint32(1e6*(t.t-sec) + 0.5)
		if us >= 1000000 {
			return 999999
		}
		return us
	}
	sec = float64(int64(-t.t))
	us := uint32(1e6*((-t.t)-sec) + 0.5)
	if us >= 1000000 {
		return 999999
	}
	return us
}

// Float returns the raw scalar value, in seconds.
func (t Time) Float() float64 {
	return t.t
}

// IsZero reports whether t is the zero time.
func (t Time) IsZero() bool {
	return t.t == 0
}

// Add returns t advanced by d.
func (t Time) Add(d Time) Time {
	return Time{t: t.t + d.t}
}

// Sub returns t set back by d.
func (t Time) Sub(d Time) Time {
	return Time{t: t.t - d.t}
}

// Before reports whether t occurs before u.
func (t Time) Before(u Time) bool { return t.t < u.t }

// After reports whether t occurs after u.
func (t Time) After(u Time) bool { return t.t > u.t }

// BeforeOrEqual reports whether t occurs at or before u.
func (t Time) BeforeOrEqual(u Time) bool { return t.t <= u.t }

// AfterOrEqual reports whether t occurs at or after u.
func (t Time) AfterOrEqual(u Time) bool { return t.t >= u.t }

// NTP is the pair of 32-bit words an NTP-64 timestamp is made of.
type NTP struct {
	MSW uint32
	LSW uint32
}

// ToNTP converts t to its NTP-64 representation.
func ToNTP(t Time) NTP {
	sec := int64(t.t)
	frac := t.t - float64(sec)

	msw := uint32(sec) + ntpEpochOffset
	lsw := uint32(frac * (65536.0 * 65536.0))
	return NTP{MSW: msw, LSW: lsw}
}

// FromNTP converts an NTP-64 timestamp back to Time, rounded to the nearest
// microsecond. If msw predates the
// NTP epoch offset the conversion cannot be made and the zero Time is
// returned, matching the reference implementation's failure mode.
func FromNTP(n NTP) Time {
	if n.MSW < ntpEpochOffset {
		return Time{}
	}
	sec := n.MSW - ntpEpochOffset
	x := float64(n.LSW)
	x /= 65536.0 * 65536.0
	x *= 1000000.0
	microsec := uint32(x + 0.5)
	return Time{t: float64(sec) + 1e-6*float64(microsec)}
}

// Wait sleeps for d, a no-op for d <= 0. Like the reference nanosleep loop,
// it resumes across signal-induced early wakeups until the full interval
// has elapsed; Go's time.Sleep already gives us that guarantee.
func Wait(d Time) {
	if d.t <= 0 {
		return
	}
	time.Sleep(time.Duration(d.t * float64(time.Second)))
}
