package generate

import (
	"math/big"

	"scorelib/observability"
	"scorelib/score"
)

// filterTuplets is the tuplet preservation filter, wired in where raw
// duration tokens have just become tuplet-aware chord groupings and before
// any emission consumes them. With preservation enabled (the default) it is
// the identity: every recognized tuplet survives to the document.
func (g *Generator) filterTuplets(measures []score.Measure) []score.Measure {
	if g.policy.PreserveTuplets {
		return measures
	}
	return g.pruneImplausibleTuplets(measures)
}

// pruneImplausibleTuplets is the legacy heuristic: tuplet markers in
// measures whose length falls well short of the median measure are assumed
// to be misdetections and dropped. Its false-positive rate on genuine
// triplets exceeds its catch rate, which is why filterTuplets defaults it
// off; it remains only so the policy flag has a real off-path.
func (g *Generator) pruneImplausibleTuplets(measures []score.Measure) []score.Measure {
	median := medianMeasureLength(measures)
	if median.Sign() <= 0 {
		return measures
	}
	threshold := new(big.Rat).Mul(median, big.NewRat(3, 4))

	out := make([]score.Measure, len(measures))
	for i, m := range measures {
		out[i] = m
		if measureLength(m).Cmp(threshold) >= 0 {
			continue
		}
		chords := make([]score.ChordGroup, len(m.Chords))
		copy(chords, m.Chords)
		pruned := 0
		for j := range chords {
			if chords[j].Tuplet != nil {
				chords[j].Tuplet = nil
				pruned++
			}
		}
		if pruned > 0 {
			g.logger.Debug("pruned tuplet markers from short measure",
				observability.Int("measure", i+1),
				observability.Int("pruned", pruned))
		}
		out[i].Chords = chords
	}
	return out
}
