// Package generate builds MusicXML documents from the symbolic score an OMR
// engine recognizes. The corrective behaviors — tuplet preservation,
// slur/tie reinstatement, time-signature snapping — run inline with
// generation and are switched through an injected Policy rather than by
// patching any shared state.
package generate

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/subchen/go-xmldom"

	"scorelib/musicxml"
	"scorelib/observability"
	"scorelib/score"
)

// Generator turns a symbolic score into MusicXML text.
type Generator struct {
	policy Policy
	logger observability.Logger
}

// NewGenerator constructs a Generator with the given policy. A nil logger
// defaults to the no-op logger.
func NewGenerator(policy Policy, logger observability.Logger) *Generator {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Generator{policy: policy, logger: logger}
}

// Generate renders the score as a partwise MusicXML document. The returned
// text always begins with the XML declaration.
func (g *Generator) Generate(score *score.Score) (string, error) {
	if score == nil || len(score.Parts) == 0 {
		return "", fmt.Errorf("generate: score has no parts")
	}

	doc := xmldom.NewDocument("score-partwise")
	doc.Root.SetAttributeValue("version", "4.0")

	if score.Title != "" {
		work := doc.Root.CreateNode("work")
		title := work.CreateNode("work-title")
		title.Text = score.Title
	}
	if score.Composer != "" {
		ident := doc.Root.CreateNode("identification")
		creator := ident.CreateNode("creator")
		creator.SetAttributeValue("type", "composer")
		creator.Text = score.Composer
	}

	partList := doc.Root.CreateNode("part-list")
	for i, part := range score.Parts {
		sp := partList.CreateNode("score-part")
		sp.SetAttributeValue("id", partID(part, i))
		name := sp.CreateNode("part-name")
		name.Text = part.Name
	}

	for i, part := range score.Parts {
		g.generatePart(doc.Root, part, partID(part, i))
	}

	return musicxml.EnsureHeader(doc.XML()), nil
}

func partID(part score.Part, index int) string {
	if part.ID != "" {
		return part.ID
	}
	return fmt.Sprintf("P%d", index+1)
}

func (g *Generator) generatePart(root *xmldom.Node, part score.Part, id string) {
	measures := g.filterTuplets(part.Measures)
	divisions, sig := g.deriveTimeSignature(measures)
	st := &genState{divisions: divisions}

	pn := root.CreateNode("part")
	pn.SetAttributeValue("id", id)

	for mi, measure := range measures {
		mn := pn.CreateNode("measure")
		mn.SetAttributeValue("number", strconv.Itoa(mi+1))
		if mi == 0 {
			g.emitAttributes(mn, part, divisions, sig)
		}
		g.generateMeasure(mn, measure, st)
	}
}

func (g *Generator) emitAttributes(mn *xmldom.Node, part score.Part, divisions int, sig timeSignature) {
	attrs := mn.CreateNode("attributes")
	div := attrs.CreateNode("divisions")
	div.Text = strconv.Itoa(divisions)
	key := attrs.CreateNode("key")
	fifths := key.CreateNode("fifths")
	fifths.Text = "0"
	ts := attrs.CreateNode("time")
	beats := ts.CreateNode("beats")
	beats.Text = strconv.Itoa(sig.Beats)
	beatType := ts.CreateNode("beat-type")
	beatType.Text = strconv.Itoa(sig.BeatType)
	if part.Staves > 1 {
		staves := attrs.CreateNode("staves")
		staves.Text = strconv.Itoa(part.Staves)
		trebleClef(attrs).SetAttributeValue("number", "1")
		clef := attrs.CreateNode("clef")
		clef.SetAttributeValue("number", "2")
		sign := clef.CreateNode("sign")
		sign.Text = "F"
		line := clef.CreateNode("line")
		line.Text = "4"
	} else {
		trebleClef(attrs)
	}
}

func trebleClef(attrs *xmldom.Node) *xmldom.Node {
	clef := attrs.CreateNode("clef")
	sign := clef.CreateNode("sign")
	sign.Text = "G"
	line := clef.CreateNode("line")
	line.Text = "2"
	return clef
}

// generateMeasure emits the measure voice by voice, rewinding to the
// measure's start between voices.
func (g *Generator) generateMeasure(mn *xmldom.Node, measure score.Measure, st *genState) {
	var voiceOrder []string
	byVoice := make(map[string][]score.ChordGroup)
	for _, c := range measure.Chords {
		v := c.Voice
		if v == "" {
			v = "1"
		}
		if _, seen := byVoice[v]; !seen {
			voiceOrder = append(voiceOrder, v)
		}
		byVoice[v] = append(byVoice[v], c)
	}

	for vi, v := range voiceOrder {
		total := new(big.Rat)
		for _, chord := range byVoice[v] {
			advance := g.buildNoteChord(mn, chord, st, chord.Duration())
			total.Add(total, advance)
		}
		if vi != len(voiceOrder)-1 && total.Sign() > 0 {
			emitBackup(mn, st.durationUnits(total))
		}
	}
}
