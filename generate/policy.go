package generate

// Policy is the capability set injected into the generation pipeline at
// construction time. Each flag enables one corrective behavior; disabling a
// flag reproduces the unmodified generation path for that concern, which
// keeps every correction testable in isolation.
type Policy struct {
	// PreserveTuplets bypasses the legacy measure-statistics heuristic that
	// pruned tuplet markers from short measures. The heuristic dropped more
	// genuine triplets than it caught misdetections.
	PreserveTuplets bool

	// ReinstateArticulations re-attaches slur and tie events to the first
	// note of a chord's shortest-duration partition during emission.
	ReinstateArticulations bool

	// SnapTimeSignature maps measured measure lengths to the nearest
	// canonical time signature instead of emitting the raw measurement.
	SnapTimeSignature bool
}

// DefaultPolicy enables every correction.
func DefaultPolicy() Policy {
	return Policy{
		PreserveTuplets:        true,
		ReinstateArticulations: true,
		SnapTimeSignature:      true,
	}
}
