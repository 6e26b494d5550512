package transform

import (
	"context"

	"github.com/subchen/go-xmldom"

	"scorelib/musicxml"
	"scorelib/observability"
)

// beamableTypes are the duration types eligible for beaming.
var beamableTypes = map[string]bool{
	"eighth": true,
	"16th":   true,
	"32nd":   true,
	"64th":   true,
	"128th":  true,
}

// BeamRegrouper scans each measure and voice, partitions consecutive
// beamable notes into groups, and emits explicit beam markers. Beam groups
// never span a measure boundary, a rest, a grace note, or a non-beamable
// duration; runs in one voice are beamed as a single group with one beam
// level, without beat-boundary splitting. Existing beam markers are replaced
// on grouped notes and stripped everywhere else, so the transform is
// idempotent and never leaves a stale marker behind.
type BeamRegrouper struct {
	logger observability.Logger
}

// NewBeamRegrouper constructs the transform. A nil logger defaults to the
// no-op logger.
func NewBeamRegrouper(logger observability.Logger) *BeamRegrouper {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &BeamRegrouper{logger: logger}
}

func (b *BeamRegrouper) Name() string { return "beam-regroup" }

// Apply regroups beams over the document text. Input that does not parse is
// returned unchanged: beam regrouping is an enhancement, never a gate.
func (b *BeamRegrouper) Apply(ctx context.Context, doc string) (string, error) {
	parsed, err := musicxml.Parse(doc)
	if err != nil {
		b.logger.Debug("document did not parse, skipping beam regroup",
			observability.Error("err", err))
		return doc, nil
	}
	for _, part := range parsed.Parts() {
		for _, measure := range musicxml.Measures(part) {
			regroupMeasure(measure)
		}
	}
	return parsed.Serialize(), nil
}

// regroupMeasure keeps one open run per voice and closes runs at every
// beaming barrier. Chord-continuation notes join their voice's run and are
// beamed identically to the chord's lead note.
func regroupMeasure(measure *xmldom.Node) {
	open := make(map[string][]*xmldom.Node)
	for _, note := range musicxml.Notes(measure) {
		voice := musicxml.Voice(note)
		if musicxml.IsRest(note) || musicxml.IsGrace(note) {
			closeRun(open, voice)
			musicxml.ClearBeams(note)
			continue
		}
		if !beamableTypes[musicxml.NoteType(note)] {
			closeRun(open, voice)
			musicxml.ClearBeams(note)
			continue
		}
		open[voice] = append(open[voice], note)
	}
	for voice := range open {
		closeRun(open, voice)
	}
}

// closeRun finalizes a voice's open run. Fewer than two notes get no beam
// markers; otherwise the run becomes one begin/continue/end group. Either
// way, any pre-existing markers on its notes are discarded.
func closeRun(open map[string][]*xmldom.Node, voice string) {
	run := open[voice]
	open[voice] = nil
	if len(run) < 2 {
		for _, note := range run {
			musicxml.ClearBeams(note)
		}
		return
	}
	for i, note := range run {
		switch {
		case i == 0:
			musicxml.ReplaceBeams(note, "begin")
		case i == len(run)-1:
			musicxml.ReplaceBeams(note, "end")
		default:
			musicxml.ReplaceBeams(note, "continue")
		}
	}
}
