// Package score holds the pure symbolic-score domain types shared by the
// recognition (omr) and generation (generate) layers.
package score

import (
	"math/big"
)

// Articulation is a slur or tie event attached at a chord group's onset.
type Articulation string

const (
	SlurStart Articulation = "slur-start"
	SlurStop  Articulation = "slur-stop"
	TieStart  Articulation = "tie-start"
	TieStop   Articulation = "tie-stop"
)

// Tuplet marks an irregular duration grouping (actual notes in the time of
// normal notes, e.g. 3/2 for a triplet).
type Tuplet struct {
	ActualNotes int `json:"actual_notes"`
	NormalNotes int `json:"normal_notes"`
}

// NoteType names follow the MusicXML type vocabulary, longest first.
var noteTypeFractions = map[string]*big.Rat{
	"whole":   big.NewRat(1, 1),
	"half":    big.NewRat(1, 2),
	"quarter": big.NewRat(1, 4),
	"eighth":  big.NewRat(1, 8),
	"16th":    big.NewRat(1, 16),
	"32nd":    big.NewRat(1, 32),
	"64th":    big.NewRat(1, 64),
	"128th":   big.NewRat(1, 128),
}

// Note is one recognized note head or rest.
type Note struct {
	Step   string `json:"step,omitempty"` // C..B; empty for rests
	Alter  int    `json:"alter,omitempty"`
	Octave int    `json:"octave,omitempty"`
	Rest   bool   `json:"rest,omitempty"`
	Grace  bool   `json:"grace,omitempty"`
	Type   string `json:"type"` // duration type name, e.g. "quarter"
	Dots   int    `json:"dots,omitempty"`
}

// Fraction returns the note's duration as a fraction of a whole note,
// before any tuplet modification. Grace notes have zero duration.
func (n Note) Fraction() *big.Rat {
	if n.Grace {
		return new(big.Rat)
	}
	base, ok := noteTypeFractions[n.Type]
	if !ok {
		return new(big.Rat)
	}
	f := new(big.Rat).Set(base)
	dot := new(big.Rat).Set(base)
	for i := 0; i < n.Dots; i++ {
		dot.Quo(dot, big.NewRat(2, 1))
		f.Add(f, dot)
	}
	return f
}

// ChordGroup is a set of notes sharing an onset time and voice. Articulations
// attach at the onset; the tuplet marker, when present, scales every note.
type ChordGroup struct {
	Voice         string         `json:"voice,omitempty"`
	Staff         int            `json:"staff,omitempty"`
	Notes         []Note         `json:"notes"`
	Tuplet        *Tuplet        `json:"tuplet,omitempty"`
	Articulations []Articulation `json:"articulations,omitempty"`
}

// NoteFraction returns one note's duration with the group's tuplet applied.
func (c ChordGroup) NoteFraction(n Note) *big.Rat {
	f := n.Fraction()
	if c.Tuplet != nil && c.Tuplet.ActualNotes > 0 && c.Tuplet.NormalNotes > 0 {
		f.Mul(f, big.NewRat(int64(c.Tuplet.NormalNotes), int64(c.Tuplet.ActualNotes)))
	}
	return f
}

// Duration returns the chord's nominal duration: its longest note.
func (c ChordGroup) Duration() *big.Rat {
	max := new(big.Rat)
	for _, n := range c.Notes {
		if f := c.NoteFraction(n); f.Cmp(max) > 0 {
			max = f
		}
	}
	return max
}

// Measure is one recognized measure of chord groups in temporal order.
type Measure struct {
	Chords []ChordGroup `json:"chords"`
}

// Part is one recognized part. Staves > 1 marks a grand staff.
type Part struct {
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name,omitempty"`
	Staves   int       `json:"staves,omitempty"`
	Measures []Measure `json:"measures"`
}

// Score is the symbolic draft a recognition engine produces for one page.
type Score struct {
	Title    string `json:"title,omitempty"`
	Composer string `json:"composer,omitempty"`
	Parts    []Part `json:"parts"`
}
