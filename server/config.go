package server

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the HTTP boundary and engine settings, read from the
// environment.
type Config struct {
	Addr           string   `env:"SCORELIB_ADDR" envDefault:":8000"`
	MaxUploadBytes int64    `env:"SCORELIB_MAX_UPLOAD_BYTES" envDefault:"52428800"`
	AllowedOrigins []string `env:"SCORELIB_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`

	WeightsBucket string   `env:"SCORELIB_WEIGHTS_BUCKET"`
	WeightsDir    string   `env:"SCORELIB_WEIGHTS_DIR" envDefault:"/var/cache/scorelib/weights"`
	WeightFiles   []string `env:"SCORELIB_WEIGHT_FILES"`

	EngineCommand string   `env:"SCORELIB_ENGINE_COMMAND"`
	EngineArgs    []string `env:"SCORELIB_ENGINE_ARGS"`

	MaxImageDimension int `env:"SCORELIB_MAX_IMAGE_DIMENSION" envDefault:"3508"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
