package omr

import (
	"context"

	"scorelib/score"
)

// The symbolic-score domain types live in the leaf package scorelib/score so
// that both omr and generate can depend on them without an import cycle.
// Aliases keep the omr-qualified names working.

// Articulation is a slur or tie event attached at a chord group's onset.
type Articulation = score.Articulation

const (
	SlurStart = score.SlurStart
	SlurStop  = score.SlurStop
	TieStart  = score.TieStart
	TieStop   = score.TieStop
)

// Tuplet marks an irregular duration grouping (actual notes in the time of
// normal notes, e.g. 3/2 for a triplet).
type Tuplet = score.Tuplet

// Note is one recognized note head or rest.
type Note = score.Note

// ChordGroup is a set of notes sharing an onset time and voice. Articulations
// attach at the onset; the tuplet marker, when present, scales every note.
type ChordGroup = score.ChordGroup

// Measure is one recognized measure of chord groups in temporal order.
type Measure = score.Measure

// Part is one recognized part. Staves > 1 marks a grand staff.
type Part = score.Part

// Score is the symbolic draft a recognition engine produces for one page.
type Score = score.Score

// Input encapsulates a single page image submitted for recognition.
type Input struct {
	// ID is an optional caller-provided identifier.
	ID string
	// Image is the encoded page image.
	Image []byte
	// Filename is the upload's original name, used only as an extension hint.
	Filename string
	// Path is where the processor staged the image on disk for engines that
	// consume files rather than bytes.
	Path string
}

// Engine is the recognition provider contract: one page image in, one
// symbolic score out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (*Score, error)
}
