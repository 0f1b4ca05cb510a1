package types

import "time"

type SignalType string

const (
	// SignalTypeNone means no action for this bar
	SignalTypeNone SignalType = "none"
	// SignalTypeEnterLong tells the simulator to open a long position
	SignalTypeEnterLong SignalType = "enter_long"
	// SignalTypeExitLong tells the simulator to close the open long position
	SignalTypeExitLong SignalType = "exit_long"
)

type Signal struct {
	// Time is the time of the bar the signal was derived from
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Reason is a human-readable explanation for the signal
	Reason string
	// RawValue carries the indicator values that produced the signal
	RawValue map[string]float64
	// Symbol is the symbol of the signal
	Symbol string
}
