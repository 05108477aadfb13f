///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

// Package measure records lifecycle events and production counters of the
// precompute engine.
package measure

// metrics.go contains the bounded lifecycle event log

import (
	"sync"
	"time"
)

// DefaultEventLimit is the number of events a Metrics keeps when no limit is
// given
const DefaultEventLimit = 256

// Metrics holds the most recent lifecycle events of a buffer, oldest first.
// Once the limit is reached the oldest event is dropped for every new one.
type Metrics struct {
	events []Metric
	limit  int
	sync.RWMutex
}

// Metric is a single measurement: a lifecycle tag and when it happened
type Metric struct {
	Tag       string
	Timestamp time.Time
}

// NewMetrics creates an event log keeping at most limit events. A limit
// below one selects DefaultEventLimit.
func NewMetrics(limit int) *Metrics {
	if limit < 1 {
		limit = DefaultEventLimit
	}
	return &Metrics{limit: limit}
}

// Measure records tag with the current time and returns that time
func (ms *Metrics) Measure(tag string) time.Time {
	metric := Metric{
		Tag:       tag,
		Timestamp: time.Now(),
	}

	ms.Lock()
	defer ms.Unlock()

	if ms.limit > 0 && len(ms.events) >= ms.limit {
		n := copy(ms.events, ms.events[len(ms.events)-ms.limit+1:])
		ms.events = ms.events[:n]
	}
	ms.events = append(ms.events, metric)

	return metric.Timestamp
}

// GetEvents returns a copy of the recorded events
func (ms *Metrics) GetEvents() []Metric {
	ms.RLock()
	defer ms.RUnlock()

	events := make([]Metric, len(ms.events))
	copy(events, ms.events)
	return events
}

// Last returns the most recent event with the given tag
func (ms *Metrics) Last(tag string) (Metric, bool) {
	ms.RLock()
	defer ms.RUnlock()

	for i := len(ms.events) - 1; i >= 0; i-- {
		if ms.events[i].Tag == tag {
			return ms.events[i], true
		}
	}
	return Metric{}, false
}
