package application

import "time"

// Clock returns the current instant. Tests substitute a fixed one.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
