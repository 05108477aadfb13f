///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package state

import (
	"github.com/pkg/errors"
	"sync"
	"time"
)

// Machine is the lifecycle state machine of a precompute buffer
type Machine struct {
	// holds the state
	*Status
	// mux to ensure proper access to state
	*sync.RWMutex

	// used to signal to waiting threads that a state change has occurred
	signal chan Status

	// holds valid state transitions
	stateMap [][]bool
}

// NewMachine builds a machine in the UNINITIALIZED state
func NewMachine() Machine {
	ss := UNINITIALIZED

	m := Machine{&ss,
		&sync.RWMutex{},
		make(chan Status),
		make([][]bool, NUM_STATUS),
	}

	for i := 0; i < int(NUM_STATUS); i++ {
		m.stateMap[i] = make([]bool, NUM_STATUS)
	}

	// starting with a key initializes implicitly
	m.addStateTransition(UNINITIALIZED, STOPPED, RUNNING)
	m.addStateTransition(STOPPED, RUNNING)
	m.addStateTransition(RUNNING, STOPPED)

	return m
}

// Get returns the current state
func (m Machine) Get() Status {
	m.RLock()
	defer m.RUnlock()
	return *m.Status
}

// WaitFor blocks until the machine is in one of the expected states or the
// timeout expires. It returns immediately when already in an expected state
// and errors when none of them can be reached from the current one.
func (m Machine) WaitFor(timeout time.Duration, expected ...Status) (Status, error) {
	// take the read lock to ensure state does not change during initial
	// checks
	m.RLock()

	kill := make(chan struct{}, 1)
	done := make(chan error)

	expectedMap := make(map[Status]bool)
	for _, val := range expected {
		expectedMap[val] = true
	}

	// state updates cannot happen until the read lock is released, so the
	// notification cannot be missed
	timer := time.NewTimer(timeout)
	go func() {
		select {
		case newState := <-m.signal:
			if !expectedMap[newState] {
				done <- errors.Errorf("State not updated to the "+
					"correct state: expected: %s receive: %s", expected,
					newState)
			} else {
				done <- nil
			}
		case <-timer.C:
			done <- errors.Errorf("Timer of %s timed out before "+
				"state update", timeout)
		case <-kill:
		}
	}()

	if expectedMap[*m.Status] {
		kill <- struct{}{}
		m.RUnlock()
		return *m.Status, nil
	}

	validTransition := false
	for _, s := range expected {
		if m.stateMap[*m.Status][s] {
			validTransition = true
		}
	}

	if !validTransition {
		kill <- struct{}{}
		m.RUnlock()
		return *m.Status, errors.Errorf("Cannot wait for state %s which "+
			"cannot be reached from the current state %s", expected, *m.Status)
	}

	m.RUnlock()

	err := <-done

	return m.Get(), err
}

// Update moves to nextStatus if the transition is valid and notifies every
// thread waiting on a state change. Moving to the current state is a no-op.
func (m Machine) Update(nextStatus Status) (bool, error) {
	m.Lock()
	defer m.Unlock()

	if *m.Status == nextStatus {
		return true, nil
	}

	if !m.stateMap[*m.Status][nextStatus] {
		return false, errors.Errorf("not a valid state change from "+
			"%s to %s", *m.Status, nextStatus)
	}

	*m.Status = nextStatus

	// notify waiting threads until there are none left waiting on the channel
	for signal := true; signal; {
		select {
		case m.signal <- *m.Status:
		default:
			signal = false
		}
	}

	return true, nil
}

// adds a state transition to the state object
func (m Machine) addStateTransition(from Status, to ...Status) {
	for _, t := range to {
		m.stateMap[from][t] = true
	}
}
