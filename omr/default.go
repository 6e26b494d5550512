package omr

import "context"

var defaultEngine Engine = &noopEngine{}

// DefaultEngine returns the package's default recognition engine.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the package's default recognition engine. Provider
// packages call this from init.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(ctx context.Context, in Input) (*Score, error) {
	return &Score{}, nil
}
