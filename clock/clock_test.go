// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNTPRoundTrip(t *testing.T) {
	// The last case is the largest whole second whose MSW still fits in 32
	// bits once the NTP epoch offset is added.
	cases := []float64{0, 1, 59.5, 12345.678912, float64(math.MaxUint32 - ntpEpochOffset)}
	for _, c := range cases {
		tt := New(c)
		got := FromNTP(ToNTP(tt))
		assert.InDelta(t, tt.Float(), got.Float(), 1e-6, "round trip for %v", c)
	}
}

func TestFromNTPBeforeEpoch(t *testing.T) {
	got := FromNTP(NTP{MSW: ntpEpochOffset - 1, LSW: 0})
	assert.True(t, got.IsZero())
}

func TestFromDurationNegative(t *testing.T) {
	tt := FromDuration(-5, 500000)
	assert.InDelta(t, -5.5, tt.Float(), 1e-6)
}

func TestOrdering(t *testing.T) {
	a := New(1.0)
	b := New(2.0)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
}

func TestAddSub(t *testing.T) {
	a := New(10.0)
	d := New(2.5)
	assert.InDelta(t, 12.5, a.Add(d).Float(), 1e-9)
	assert.InDelta(t, 7.5, a.Sub(d).Float(), 1e-9)
}

func TestWaitZeroOrNegativeReturnsImmediately(t *testing.T) {
	start := time.Now()
	Wait(New(0))
	Wait(New(-1))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitSleepsApproximately(t *testing.T) {
	start := time.Now()
	Wait(New(0.02))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestNowTracksMonotonic(t *testing.T) {
	a := Now()
	time.Sleep(5 * time.Millisecond)
	b := Now()
	assert.True(t, b.After(a))
}

func TestMicrosecondsClampedBelowOneSecond(t *testing.T) {
	tt := New(1.9999999)
	assert.Less(t, tt.Microseconds(), uint32(1000000))
}
