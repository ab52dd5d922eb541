package parsez

import "github.com/zoobzio/capitan"

// Signal definitions for parsez connector events.
// Signals follow the pattern: <connector-type>.<event>.
var (
	// Alt signals.
	SignalAltBranch = capitan.NewSignal(
		"alt.branch",
		"Alt connector is attempting to parse with a branch in the alternative chain",
	)
	SignalAltCut = capitan.NewSignal(
		"alt.cut",
		"Alt connector stopped the alternative search because a branch failed after committing",
	)
	SignalAltExhausted = capitan.NewSignal(
		"alt.exhausted",
		"Alt connector exhausted all branches without a match",
	)

	// Repeat signals.
	SignalRepeatCapped = capitan.NewSignal(
		"repeat.capped",
		"Repeat connector clamped an accumulator capacity hint to the preallocation ceiling",
	)
	SignalRepeatNoProgress = capitan.NewSignal(
		"repeat.no-progress",
		"Repeat connector rejected a body that succeeded without consuming input",
	)

	// Dispatch signals.
	SignalDispatchMiss = capitan.NewSignal(
		"dispatch.miss",
		"Dispatch connector parsed a key with no registered route and no default",
	)
)

// Common field keys using capitan primitive types.
// All keys use primitive types to avoid custom struct serialization.
var (
	// Common fields.
	FieldName      = capitan.NewStringKey("name")      // Connector instance name
	FieldRemaining = capitan.NewIntKey("remaining")    // Remaining input length
	FieldError     = capitan.NewStringKey("error")     // Error message

	// Alt fields.
	FieldBranch     = capitan.NewIntKey("branch")         // Index of branch being tried
	FieldBranchName = capitan.NewStringKey("branch_name") // Name of branch being tried

	// Repeat fields.
	FieldRequested = capitan.NewFloat64Key("requested") // Capacity hint before clamping
	FieldCeiling   = capitan.NewIntKey("ceiling")       // Preallocation ceiling
	FieldCount     = capitan.NewIntKey("count")         // Completed repetitions

	// Dispatch fields.
	FieldRouteKey = capitan.NewStringKey("route_key") // Rendered route key
)
