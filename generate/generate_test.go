package generate

import (
	"strings"
	"testing"

	"scorelib/score"
)

func tripletMeasure() score.Measure {
	triplet := &score.Tuplet{ActualNotes: 3, NormalNotes: 2}
	var m score.Measure
	for _, step := range []string{"C", "D", "E"} {
		m.Chords = append(m.Chords, score.ChordGroup{
			Notes:  []score.Note{{Step: step, Octave: 4, Type: "eighth"}},
			Tuplet: triplet,
		})
	}
	return m
}

func TestGenerateBasicDocument(t *testing.T) {
	g := NewGenerator(DefaultPolicy(), nil)
	score := &score.Score{
		Title:    "Etude",
		Composer: "F. Sor",
		Parts: []score.Part{{
			Measures: []score.Measure{quarters(3), quarters(3)},
		}},
	}
	out, err := g.Generate(score)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(out, "<?xml") {
		t.Fatalf("output missing XML declaration")
	}
	for _, want := range []string{
		`<part id="P1">`,
		"<work-title>Etude</work-title>",
		`<creator type="composer">F. Sor</creator>`,
		"<beats>3</beats>",
		"<beat-type>4</beat-type>",
		"<divisions>1</divisions>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "<measure"); got != 2 {
		t.Fatalf("got %d measures, want 2", got)
	}
}

func TestGenerateEmptyScoreFails(t *testing.T) {
	g := NewGenerator(DefaultPolicy(), nil)
	if _, err := g.Generate(&score.Score{}); err == nil {
		t.Fatalf("expected error for empty score")
	}
	if _, err := g.Generate(nil); err == nil {
		t.Fatalf("expected error for nil score")
	}
}

func TestGeneratePreservesTuplets(t *testing.T) {
	// A short triplet measure among full measures: exactly what the legacy
	// heuristic used to prune.
	measures := []score.Measure{quarters(4), quarters(4), quarters(4), tripletMeasure()}
	score := &score.Score{Parts: []score.Part{{Measures: measures}}}

	g := NewGenerator(DefaultPolicy(), nil)
	out, err := g.Generate(score)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, "<time-modification>") {
		t.Fatalf("tuplet marker dropped despite preservation policy:\n%s", out)
	}
	if !strings.Contains(out, "<actual-notes>3</actual-notes>") {
		t.Fatalf("tuplet ratio missing:\n%s", out)
	}
}

func TestGenerateLegacyTupletPruning(t *testing.T) {
	measures := []score.Measure{quarters(4), quarters(4), quarters(4), tripletMeasure()}
	score := &score.Score{Parts: []score.Part{{Measures: measures}}}

	g := NewGenerator(Policy{ReinstateArticulations: true, SnapTimeSignature: true}, nil)
	out, err := g.Generate(score)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Contains(out, "<time-modification>") {
		t.Fatalf("legacy heuristic should have pruned the short measure's tuplets:\n%s", out)
	}
}

func TestGenerateGrandStaffAttributes(t *testing.T) {
	g := NewGenerator(DefaultPolicy(), nil)
	score := &score.Score{Parts: []score.Part{{
		Staves:   2,
		Measures: []score.Measure{quarters(4)},
	}}}
	out, err := g.Generate(score)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, "<staves>2</staves>") {
		t.Fatalf("staves element missing:\n%s", out)
	}
	if !strings.Contains(out, "<sign>F</sign>") {
		t.Fatalf("bass clef missing for grand staff:\n%s", out)
	}
}

func TestGenerateMultiVoiceBackup(t *testing.T) {
	g := NewGenerator(DefaultPolicy(), nil)
	m := score.Measure{Chords: []score.ChordGroup{
		{Voice: "1", Notes: []score.Note{{Step: "C", Octave: 5, Type: "half"}}},
		{Voice: "2", Notes: []score.Note{{Step: "E", Octave: 3, Type: "half"}}},
	}}
	score := &score.Score{Parts: []score.Part{{Measures: []score.Measure{m}}}}
	out, err := g.Generate(score)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// Voice 2 starts at the measure's beginning: a rewind of a half note
	// (2 units on a 1-per-quarter grid) separates the voices.
	if !strings.Contains(out, "<backup><duration>2</duration></backup>") {
		t.Fatalf("missing inter-voice backup:\n%s", out)
	}
	if !strings.Contains(out, "<voice>2</voice>") {
		t.Fatalf("second voice missing:\n%s", out)
	}
}
