// Package clock abstracts wall-clock time so timer arithmetic stays testable.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by time.Now in UTC.
func System() Clock { return systemClock{} }

// Fake is a manually advanced clock for tests.
type Fake struct {
	Current time.Time
}

// NewFake returns a Fake clock pinned to t.
func NewFake(t time.Time) *Fake { return &Fake{Current: t} }

// Now returns the pinned time.
func (f *Fake) Now() time.Time { return f.Current }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }
