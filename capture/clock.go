// Package capture contains the automatic-capture decision logic: the
// capture-mode controller, the frame quality tracker and the cross-frame
// verification engine. Nothing in this package blocks; every method is
// meant to be called once per frame or user action from the session loop.
package capture

import "time"

// Clock abstracts time so stabilization windows and cooldowns can be tested
// without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
