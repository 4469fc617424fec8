// Package teb implements a timed elastic band: a trajectory made of poses and the time between them, deformed
// by numerical optimization to be short, smooth and clear of obstacles.
package teb

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/hcplanner/utils"
)

// default values for the elastic band.
const (
	// Desired time in seconds between two consecutive poses.
	defaultDtRef = 0.3
	// Band is resized when a time difference leaves dt_ref +/- this.
	defaultDtHysteresis = 0.1

	defaultMinSamples = 3
	defaultMaxSamples = 100

	// m/s
	defaultMaxVelX = 0.4
	// rad/s
	defaultMaxVelTheta = 0.3

	// meters
	defaultMinObstacleDist = 0.5

	defaultWeightOptimalTime = 1.
	defaultWeightSmoothness  = 2.
	defaultWeightObstacle    = 50.
)

// Config holds the parameters of an elastic band and of its optimization.
type Config struct {
	DtRef        float64 `json:"dt_ref"`
	DtHysteresis float64 `json:"dt_hysteresis"`
	MinSamples   int     `json:"min_samples"`
	MaxSamples   int     `json:"max_samples"`

	MaxVelX     float64 `json:"max_vel_x"`
	MaxVelTheta float64 `json:"max_vel_theta"`

	MinObstacleDist float64 `json:"min_obstacle_dist"`

	WeightOptimalTime float64 `json:"weight_optimaltime"`
	WeightSmoothness  float64 `json:"weight_smoothness"`
	WeightObstacle    float64 `json:"weight_obstacle"`
}

// NewDefaultConfig returns a config populated with the default values.
func NewDefaultConfig() *Config {
	return &Config{
		DtRef:             defaultDtRef,
		DtHysteresis:      defaultDtHysteresis,
		MinSamples:        defaultMinSamples,
		MaxSamples:        defaultMaxSamples,
		MaxVelX:           defaultMaxVelX,
		MaxVelTheta:       defaultMaxVelTheta,
		MinObstacleDist:   defaultMinObstacleDist,
		WeightOptimalTime: defaultWeightOptimalTime,
		WeightSmoothness:  defaultWeightSmoothness,
		WeightObstacle:    defaultWeightObstacle,
	}
}

// NewConfigFromAttributes overlays an attribute map on top of the defaults.
func NewConfigFromAttributes(attrs map[string]interface{}) (*Config, error) {
	cfg := NewDefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "cannot decode elastic band config")
	}
	if err := cfg.Validate("teb"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var err error
	if cfg.DtRef <= 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("dt_ref", cfg.DtRef, "(0, inf)"))
	}
	if cfg.DtHysteresis < 0 || cfg.DtHysteresis >= cfg.DtRef {
		err = multierr.Combine(err, utils.NewOutOfRangeError("dt_hysteresis", cfg.DtHysteresis, "[0, dt_ref)"))
	}
	if cfg.MinSamples < 2 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("min_samples", cfg.MinSamples, "[2, inf)"))
	}
	if cfg.MaxSamples < cfg.MinSamples {
		err = multierr.Combine(err, utils.NewOutOfRangeError("max_samples", cfg.MaxSamples, "[min_samples, inf)"))
	}
	if cfg.MaxVelX <= 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("max_vel_x", cfg.MaxVelX, "(0, inf)"))
	}
	if cfg.MaxVelTheta <= 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("max_vel_theta", cfg.MaxVelTheta, "(0, inf)"))
	}
	if cfg.MinObstacleDist < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("min_obstacle_dist", cfg.MinObstacleDist, "[0, inf)"))
	}
	if cfg.WeightOptimalTime < 0 || cfg.WeightSmoothness < 0 || cfg.WeightObstacle < 0 {
		err = multierr.Combine(err, errors.New("weights must be non-negative"))
	}
	if err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}
