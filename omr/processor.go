// Package omr defines the recognition-engine abstraction and the processor
// that turns one page image into corrected MusicXML. Engines are pluggable
// (local processes, native bindings, remote services); the processor owns
// staging, weight readiness, generation, and post-processing.
package omr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"scorelib/generate"
	"scorelib/observability"
	"scorelib/transform"
)

// ReadyEnsurer prepares model weights before the first inference. It must be
// idempotent.
type ReadyEnsurer interface {
	EnsureReady(ctx context.Context) error
}

// Processor orchestrates recognition for one request at a time. It holds no
// request-scoped state, so one Processor may serve concurrent requests.
type Processor struct {
	engine     Engine
	generator  *generate.Generator
	post       []transform.Transform
	weights    ReadyEnsurer
	logger     observability.Logger
	maxDim     int
}

// Option mutates a Processor under construction.
type Option func(*Processor)

// WithEngine selects the recognition engine. The package default is used
// otherwise.
func WithEngine(engine Engine) Option {
	return func(p *Processor) { p.engine = engine }
}

// WithLogger sets the processor's logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithWeights sets the weight lifecycle manager consulted before inference.
func WithWeights(w ReadyEnsurer) Option {
	return func(p *Processor) { p.weights = w }
}

// WithTransforms replaces the post-processing transform chain.
func WithTransforms(transforms ...transform.Transform) Option {
	return func(p *Processor) { p.post = transforms }
}

// WithMaxDimension caps the page image's longest side; larger images are
// downscaled before staging. Zero disables downscaling.
func WithMaxDimension(px int) Option {
	return func(p *Processor) { p.maxDim = px }
}

// NewProcessor builds a Processor around the given generation policy.
func NewProcessor(policy generate.Policy, opts ...Option) *Processor {
	p := &Processor{
		engine: DefaultEngine(),
		logger: observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.generator = generate.NewGenerator(policy, p.logger)
	if p.post == nil {
		p.post = []transform.Transform{transform.NewBeamRegrouper(p.logger)}
	}
	return p
}

var (
	partIDRe = regexp.MustCompile(`<part id="([^"]+)"`)
	stavesRe = regexp.MustCompile(`<staves>(\d+)</staves>`)
)

// Process recognizes one page image and returns the corrected MusicXML text
// plus warning and error lists. Failures are collected, never raised: an
// empty document with a non-empty error list signals failure to the caller.
func (p *Processor) Process(ctx context.Context, image []byte, filename string) (string, []string, []string) {
	var warnings, errors []string

	if p.weights != nil {
		if err := p.weights.EnsureReady(ctx); err != nil {
			errors = append(errors, fmt.Sprintf("prepare model weights: %v", err))
			return "", warnings, errors
		}
	}

	if p.maxDim > 0 {
		scaled, err := downscaleImage(image, p.maxDim)
		if err != nil {
			// Not fatal here: unsupported payloads surface as engine errors.
			p.logger.Debug("downscale skipped", observability.Error("err", err))
		} else {
			image = scaled
		}
	}

	tempDir, err := os.MkdirTemp("", "scorelib-omr-")
	if err != nil {
		errors = append(errors, fmt.Sprintf("create working directory: %v", err))
		return "", warnings, errors
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "input"+extensionFor(filename))
	if err := os.WriteFile(path, image, 0o600); err != nil {
		errors = append(errors, fmt.Sprintf("stage image: %v", err))
		return "", warnings, errors
	}

	started := time.Now()
	score, err := p.engine.Recognize(ctx, Input{ID: filename, Image: image, Filename: filename, Path: path})
	if err != nil {
		errors = append(errors, fmt.Sprintf("recognition failed: %v", err))
		return "", warnings, errors
	}
	p.logger.Info("page recognized",
		observability.String("engine", p.engine.Name()),
		observability.Int64("elapsed_ms", time.Since(started).Milliseconds()))

	doc, err := p.generator.Generate(score)
	if err != nil {
		errors = append(errors, "Failed to generate MusicXML output")
		return "", warnings, errors
	}

	doc = transform.Chain(ctx, p.logger, doc, p.post...)

	parts := partIDRe.FindAllStringSubmatch(doc, -1)
	staves := stavesRe.FindAllStringSubmatch(doc, -1)
	if len(parts) == 1 && len(staves) == 0 {
		warnings = append(warnings, "Only 1 part detected - grand staff may not have been recognized correctly")
	}

	return doc, warnings, errors
}

// extensionFor picks the staged file's extension from the upload name.
// Anything unrecognized falls back to .png.
func extensionFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return ".png"
	case ".jpg":
		return ".jpg"
	case ".jpeg":
		return ".jpeg"
	default:
		return ".png"
	}
}
