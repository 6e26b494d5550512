// Package meta extracts tempo and score metadata from finished MusicXML text
// via targeted pattern matches. Extraction is read-only and tolerant: absent
// fields are omitted from the result, never reported as empty values.
package meta

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTempo is the BPM reported when the document carries no tempo marking.
const DefaultTempo = 120

var (
	perMinuteRe  = regexp.MustCompile(`<per-minute>(\d+)</per-minute>`)
	soundTempoRe = regexp.MustCompile(`<sound[^>]*tempo="(\d+)"`)

	workTitleRe     = regexp.MustCompile(`<work-title>([^<]+)</work-title>`)
	movementTitleRe = regexp.MustCompile(`<movement-title>([^<]+)</movement-title>`)
	wordsRe         = regexp.MustCompile(`<words[^>]*>([^<]+)</words>`)
	beatsRe         = regexp.MustCompile(`<beats>(\d+)</beats>`)
	beatTypeRe      = regexp.MustCompile(`<beat-type>(\d+)</beat-type>`)
	fifthsRe        = regexp.MustCompile(`<fifths>(-?\d+)</fifths>`)

	creatorRes = map[string]*regexp.Regexp{
		"composer": creatorRe("composer"),
		"lyricist": creatorRe("lyricist"),
		"arranger": creatorRe("arranger"),
	}
)

func creatorRe(role string) *regexp.Regexp {
	return regexp.MustCompile(`<creator[^>]*type="` + role + `"[^>]*>([^<]+)</creator>`)
}

// tempoKeywords is the closed vocabulary used to pick the tempo/expression
// text direction. The first words element containing any of these wins.
var tempoKeywords = []string{
	"allegro", "allegretto", "andante", "andantino", "adagio", "adagietto",
	"moderato", "largo", "larghetto", "lento", "presto", "prestissimo",
	"vivace", "vivo", "grave", "maestoso", "animato", "sostenuto",
	"cantabile", "espressivo", "dolce", "rubato", "ritardando", "rallentando",
	"accelerando", "tempo",
}

// keySignatureNames maps the circle-of-fifths count to a key name.
var keySignatureNames = map[int]string{
	-7: "Cb", -6: "Gb", -5: "Db", -4: "Ab", -3: "Eb", -2: "Bb", -1: "F",
	0: "C", 1: "G", 2: "D", 3: "A", 4: "E", 5: "B", 6: "F#", 7: "C#",
}

// ExtractTempo returns the document tempo in BPM. A per-minute metronome
// marking wins over a sound tempo attribute; with neither present the
// result is DefaultTempo.
func ExtractTempo(text string) int {
	if m := perMinuteRe.FindStringSubmatch(text); m != nil {
		if bpm, err := strconv.Atoi(m[1]); err == nil {
			return bpm
		}
	}
	if m := soundTempoRe.FindStringSubmatch(text); m != nil {
		if bpm, err := strconv.Atoi(m[1]); err == nil {
			return bpm
		}
	}
	return DefaultTempo
}

// ExtractMetadata pulls title, creators, tempo text, time signature and key
// signature out of the document. Each field is independently optional.
func ExtractMetadata(text string) map[string]string {
	out := make(map[string]string)

	if title := firstMatch(workTitleRe, text); title != "" {
		out["title"] = title
	} else if title := firstMatch(movementTitleRe, text); title != "" {
		out["title"] = title
	}

	for role, re := range creatorRes {
		if v := firstMatch(re, text); v != "" {
			out[role] = v
		}
	}

	if words := tempoText(text); words != "" {
		out["tempo_text"] = words
	}

	beats := firstMatch(beatsRe, text)
	beatType := firstMatch(beatTypeRe, text)
	if beats != "" && beatType != "" {
		out["time_signature"] = beats + "/" + beatType
	}

	if m := fifthsRe.FindStringSubmatch(text); m != nil {
		if fifths, err := strconv.Atoi(m[1]); err == nil {
			out["key_signature"] = keySignatureName(fifths)
		}
	}

	return out
}

func firstMatch(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// tempoText returns the first words direction containing a tempo keyword.
// Later matches are ignored once one is found.
func tempoText(text string) string {
	for _, m := range wordsRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		lowered := strings.ToLower(candidate)
		for _, kw := range tempoKeywords {
			if strings.Contains(lowered, kw) {
				return candidate
			}
		}
	}
	return ""
}

func keySignatureName(fifths int) string {
	if name, ok := keySignatureNames[fifths]; ok {
		return name
	}
	if fifths > 0 {
		return fmt.Sprintf("%d sharps", fifths)
	}
	return fmt.Sprintf("%d flats", -fifths)
}
