package channelmgr

import "errors"

var (
	// ErrRebalanceNotImplemented is returned by RebalancePlan: moving
	// already-assigned entities across channels after a load imbalance
	// has no crash-safety story in this implementation (see DESIGN.md,
	// Open Questions). The placeholder exists so the contract named by
	// the channel distribution design has a concrete, documented home
	// instead of a silent gap.
	ErrRebalanceNotImplemented = errors.New("channelmgr: rebalancing existing entities across channels is not implemented")

	errUnknownOwner = errors.New("channelmgr: no channel owns this oid")
	errNoChannels   = errors.New("channelmgr: manager has no channels configured")
	errAlreadyOpen  = errors.New("channelmgr: Start called while already running")
)
