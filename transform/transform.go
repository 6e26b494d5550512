// Package transform holds the post-processing transforms that run over the
// finished MusicXML text once generation is complete. Transforms are named,
// ordered, and best-effort: a transform that cannot improve the document
// leaves it untouched rather than failing the pipeline.
//
// Extension point: OCR-based dynamics detection (reading printed dynamics
// such as "pp" or "mf" off the page image and attaching direction elements)
// would slot in here as another Transform once a text-recognition provider
// is wired up. It is intentionally not implemented.
package transform

import (
	"context"

	"scorelib/observability"
)

// Transform rewrites a MusicXML document's text. Implementations must return
// the input unchanged when they cannot apply.
type Transform interface {
	Name() string
	Apply(ctx context.Context, doc string) (string, error)
}

// Chain applies transforms in order. A failing transform is logged and its
// input text carried forward unchanged; post-processing never hard-fails
// the document.
func Chain(ctx context.Context, logger observability.Logger, doc string, transforms ...Transform) string {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	for _, t := range transforms {
		out, err := t.Apply(ctx, doc)
		if err != nil {
			logger.Warn("transform failed, keeping document unchanged",
				observability.String("transform", t.Name()),
				observability.Error("err", err))
			continue
		}
		doc = out
	}
	return doc
}
