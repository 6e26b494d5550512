package generate

import (
	"fmt"
	"math/big"
	"sort"

	"scorelib/observability"
	"scorelib/score"
)

type timeSignature struct {
	Beats    int
	BeatType int
}

func (s timeSignature) String() string { return fmt.Sprintf("%d/%d", s.Beats, s.BeatType) }

// fraction returns the signature's measure length as a fraction of a whole
// note.
func (s timeSignature) fraction() *big.Rat {
	return big.NewRat(int64(s.Beats), int64(s.BeatType))
}

// canonicalTimeSignatures is the fixed product-approved set. Iteration order
// doubles as the tie-break: the first candidate at minimal distance wins.
var canonicalTimeSignatures = []timeSignature{
	{2, 4}, {3, 8}, {3, 4}, {4, 4}, {6, 8}, {9, 8}, {12, 8},
}

// misdetectedFractions maps raw measurements that are near-certain engine
// misdetections straight to their correction, ahead of the nearest-candidate
// search. 5/4 in this domain is almost always a misread 4/4.
var misdetectedFractions = []struct {
	raw *big.Rat
	sig timeSignature
}{
	{big.NewRat(5, 4), timeSignature{4, 4}},
}

// snapTimeSignature maps a measured measure length to the nearest canonical
// signature by absolute fractional distance. An exact canonical measurement
// passes through with distance zero, so snapping is idempotent.
func snapTimeSignature(measured *big.Rat) timeSignature {
	for _, m := range misdetectedFractions {
		if measured.Cmp(m.raw) == 0 {
			return m.sig
		}
	}
	best := canonicalTimeSignatures[0]
	bestDist := ratAbsDiff(measured, best.fraction())
	for _, c := range canonicalTimeSignatures[1:] {
		if d := ratAbsDiff(measured, c.fraction()); d.Cmp(bestDist) < 0 {
			best, bestDist = c, d
		}
	}
	return best
}

func ratAbsDiff(a, b *big.Rat) *big.Rat {
	d := new(big.Rat).Sub(a, b)
	return d.Abs(d)
}

// deriveTimeSignature computes the division grid and the time signature for
// a part from its measures: divisions is the smallest per-quarter grid that
// renders every note duration integral, and the signature comes from the
// median measure length, snapped when the policy asks for it. A snap that
// changes the value is logged, never an error.
func (g *Generator) deriveTimeSignature(measures []score.Measure) (int, timeSignature) {
	divisions := deriveDivisions(measures)
	measured := medianMeasureLength(measures)
	if measured.Sign() <= 0 {
		return divisions, timeSignature{4, 4}
	}

	if !g.policy.SnapTimeSignature {
		return divisions, rawSignature(measured)
	}

	sig := snapTimeSignature(measured)
	if sig.fraction().Cmp(measured) != 0 {
		g.logger.Warn("snapped time signature",
			observability.String("measured", measured.RatString()),
			observability.String("snapped", sig.String()))
	}
	return divisions, sig
}

// rawSignature renders an unsnapped measurement in quarters.
func rawSignature(measured *big.Rat) timeSignature {
	beats := new(big.Rat).Mul(measured, big.NewRat(4, 1))
	n := int((beats.Num().Int64()*2 + beats.Denom().Int64()) / (2 * beats.Denom().Int64()))
	if n < 1 {
		n = 1
	}
	return timeSignature{n, 4}
}

// deriveDivisions returns the least per-quarter division count under which
// every note duration in the part is a whole number of divisions.
func deriveDivisions(measures []score.Measure) int {
	lcm := int64(1)
	for _, m := range measures {
		for _, c := range m.Chords {
			for _, n := range c.Notes {
				q := new(big.Rat).Mul(c.NoteFraction(n), big.NewRat(4, 1))
				lcm = lcmInt64(lcm, q.Denom().Int64())
			}
		}
	}
	return int(lcm)
}

func lcmInt64(a, b int64) int64 {
	return a / gcdInt64(a, b) * b
}

func gcdInt64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// measureLength is the measure's nominal length: the longest per-voice sum
// of chord durations.
func measureLength(m score.Measure) *big.Rat {
	totals := make(map[string]*big.Rat)
	longest := new(big.Rat)
	for _, c := range m.Chords {
		v := c.Voice
		if v == "" {
			v = "1"
		}
		t, ok := totals[v]
		if !ok {
			t = new(big.Rat)
			totals[v] = t
		}
		t.Add(t, c.Duration())
		if t.Cmp(longest) > 0 {
			longest = new(big.Rat).Set(t)
		}
	}
	return longest
}

func medianMeasureLength(measures []score.Measure) *big.Rat {
	var lengths []*big.Rat
	for _, m := range measures {
		if l := measureLength(m); l.Sign() > 0 {
			lengths = append(lengths, l)
		}
	}
	if len(lengths) == 0 {
		return new(big.Rat)
	}
	sort.Slice(lengths, func(i, j int) bool { return lengths[i].Cmp(lengths[j]) < 0 })
	return lengths[(len(lengths)-1)/2]
}
