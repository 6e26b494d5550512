package generate

import (
	"math/big"
	"sort"
	"strconv"

	"github.com/subchen/go-xmldom"

	"scorelib/score"
)

// genState carries the generator's per-part emission state.
type genState struct {
	divisions int
}

// durationUnits converts a whole-note fraction to division units. The
// division grid is derived so every duration divides exactly; rounding only
// guards callers that hand in an off-grid fraction.
func (st *genState) durationUnits(f *big.Rat) int {
	u := new(big.Rat).Mul(f, big.NewRat(int64(4*st.divisions), 1))
	return int((u.Num().Int64()*2 + u.Denom().Int64()) / (2 * u.Denom().Int64()))
}

type durationPartition struct {
	frac  *big.Rat
	notes []score.Note
}

// partitionByDuration splits a chord group's notes into sub-groups sharing
// one duration value, ordered ascending.
func partitionByDuration(chord score.ChordGroup) []durationPartition {
	var parts []durationPartition
	for _, n := range chord.Notes {
		f := chord.NoteFraction(n)
		placed := false
		for i := range parts {
			if parts[i].frac.Cmp(f) == 0 {
				parts[i].notes = append(parts[i].notes, n)
				placed = true
				break
			}
		}
		if !placed {
			parts = append(parts, durationPartition{frac: f, notes: []score.Note{n}})
		}
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].frac.Cmp(parts[j].frac) < 0 })
	return parts
}

// buildNoteChord emits one chord group. Notes are partitioned by duration
// and emitted shortest partition first; the chord's slur/tie articulations
// attach to the first note of that first partition only, since ties render
// as attributes of a single note at the chord's onset. Every non-last
// partition of nonzero duration is followed by a backup sized to its
// duration so later partitions share the onset, and a final cursor
// correction lands the position exactly at onset plus target regardless of
// the internal partitioning. An empty chord emits nothing.
func (g *Generator) buildNoteChord(parent *xmldom.Node, chord score.ChordGroup, st *genState, target *big.Rat) *big.Rat {
	if len(chord.Notes) == 0 {
		return new(big.Rat)
	}

	arts := chord.Articulations
	if !g.policy.ReinstateArticulations {
		arts = nil
	}

	parts := partitionByDuration(chord)
	last := len(parts) - 1
	for pi, p := range parts {
		for ni, note := range p.notes {
			var noteArts []score.Articulation
			if pi == 0 && ni == 0 {
				noteArts = arts
			}
			g.emitNote(parent, note, chord, ni > 0, noteArts, st)
		}
		if pi != last && p.frac.Sign() > 0 {
			emitBackup(parent, st.durationUnits(p.frac))
		}
	}

	// The cursor sits at onset + the last (longest) partition's duration.
	cursor := parts[last].frac
	switch cursor.Cmp(target) {
	case -1:
		emitForward(parent, st.durationUnits(new(big.Rat).Sub(target, cursor)))
	case 1:
		emitBackup(parent, st.durationUnits(new(big.Rat).Sub(cursor, target)))
	}
	return new(big.Rat).Set(target)
}

func (g *Generator) emitNote(parent *xmldom.Node, note score.Note, chord score.ChordGroup, continuation bool, arts []score.Articulation, st *genState) {
	n := parent.CreateNode("note")
	if continuation {
		n.CreateNode("chord")
	}
	if note.Grace {
		n.CreateNode("grace")
	}
	if note.Rest {
		n.CreateNode("rest")
	} else {
		pitch := n.CreateNode("pitch")
		step := pitch.CreateNode("step")
		step.Text = note.Step
		if note.Alter != 0 {
			alter := pitch.CreateNode("alter")
			alter.Text = strconv.Itoa(note.Alter)
		}
		octave := pitch.CreateNode("octave")
		octave.Text = strconv.Itoa(note.Octave)
	}
	if !note.Grace {
		dur := n.CreateNode("duration")
		dur.Text = strconv.Itoa(st.durationUnits(chord.NoteFraction(note)))
	}
	for _, a := range arts {
		switch a {
		case score.TieStart:
			n.CreateNode("tie").SetAttributeValue("type", "start")
		case score.TieStop:
			n.CreateNode("tie").SetAttributeValue("type", "stop")
		}
	}
	voice := n.CreateNode("voice")
	if chord.Voice != "" {
		voice.Text = chord.Voice
	} else {
		voice.Text = "1"
	}
	if note.Type != "" {
		typ := n.CreateNode("type")
		typ.Text = note.Type
	}
	for i := 0; i < note.Dots; i++ {
		n.CreateNode("dot")
	}
	if chord.Tuplet != nil {
		tm := n.CreateNode("time-modification")
		actual := tm.CreateNode("actual-notes")
		actual.Text = strconv.Itoa(chord.Tuplet.ActualNotes)
		normal := tm.CreateNode("normal-notes")
		normal.Text = strconv.Itoa(chord.Tuplet.NormalNotes)
	}
	if chord.Staff > 0 {
		staff := n.CreateNode("staff")
		staff.Text = strconv.Itoa(chord.Staff)
	}
	if len(arts) > 0 {
		notations := n.CreateNode("notations")
		for _, a := range arts {
			switch a {
			case score.SlurStart:
				notations.CreateNode("slur").SetAttributeValue("type", "start").SetAttributeValue("number", "1")
			case score.SlurStop:
				notations.CreateNode("slur").SetAttributeValue("type", "stop").SetAttributeValue("number", "1")
			case score.TieStart:
				notations.CreateNode("tied").SetAttributeValue("type", "start")
			case score.TieStop:
				notations.CreateNode("tied").SetAttributeValue("type", "stop")
			}
		}
	}
}

func emitBackup(parent *xmldom.Node, units int) {
	b := parent.CreateNode("backup")
	d := b.CreateNode("duration")
	d.Text = strconv.Itoa(units)
}

func emitForward(parent *xmldom.Node, units int) {
	f := parent.CreateNode("forward")
	d := f.CreateNode("duration")
	d.Text = strconv.Itoa(units)
}
