package game

// FlipEvent records one ownership transfer during a resolution pass. The
// global flip listeners (ANY_ON_FLIP, HAND_ON_FLIP, BOARD_ON_FLIP) consume
// these; the list is scoped to one placement and never persisted.
type FlipEvent struct {
	Position   Position
	InstanceID string
	FlippedBy  string
	NewOwner   string
	Chain      bool
}

// Resolution collects the side effects of a single placement while it
// cascades: flip events for global listeners, a cycle guard so an ability
// cannot re-trigger itself on the same card within one placement, and a
// warning count for observability. It is discarded once the placement
// settles.
type Resolution struct {
	Flips    []FlipEvent
	Warnings int

	fired         map[string]bool
	flipsBySource map[string]int
}

// NewResolution creates an empty resolution pass.
func NewResolution() *Resolution {
	return &Resolution{
		fired:         make(map[string]bool),
		flipsBySource: make(map[string]int),
	}
}

// RecordFlip appends a flip event and credits the flipping card.
func (r *Resolution) RecordFlip(event FlipEvent) {
	r.Flips = append(r.Flips, event)
	if event.FlippedBy != "" {
		r.flipsBySource[event.FlippedBy]++
	}
}

// FlipsBy returns how many flips the given card caused during this pass.
func (r *Resolution) FlipsBy(instanceID string) int {
	return r.flipsBySource[instanceID]
}

// MarkFired records that the ability fired for the card during this pass and
// reports whether it had fired before. Used as the chain-effect cycle guard.
func (r *Resolution) MarkFired(instanceID, abilityID string) (alreadyFired bool) {
	key := instanceID + "|" + abilityID
	if r.fired[key] {
		return true
	}
	r.fired[key] = true
	return false
}
