package motionplan

import (
	"math"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/hcplanner/utils"
)

// default values for homotopy class planning.
const (
	// Maximum number of trajectory candidates kept alive at once.
	defaultMaxNumberClasses = 4

	// Maximum angle in radians between start->goal and an explored graph edge. Also bounds the angle between the
	// start heading and the keypoints of the nearest obstacle.
	defaultObstacleHeadingThreshold = 0.45

	// Clearance in meters kept from obstacles when placing keypoints and roadmap samples.
	defaultMinObstacleDist = 0.5

	// Number of roadmap samples drawn per cycle.
	defaultRoadmapGraphNoSamples = 15

	// Width in meters of the sampling rectangle around the start->goal axis.
	defaultRoadmapGraphAreaWidth = 6.

	// Number of draws a single roadmap sample gets before it is skipped.
	defaultRoadmapMaxSampleAttempts = 100

	// Scale applied to the obstacle weights of an H-signature.
	defaultHSignaturePrescaler = 1.

	// Two signatures closer than this in both real and imaginary part are the same class.
	defaultHSignatureThreshold = 0.1

	// Same as above but used when registering newly discovered paths.
	defaultHSignatureDiscoveryThreshold = 0.1

	// Start and goal closer than this in meters disable exploration.
	defaultXYGoalTolerance = 0.2

	defaultNoInnerIterations = 5
	defaultNoOuterIterations = 4
)

// PlannerConfig holds the settings of a HomotopyClassPlanner. It is read-only while a cycle runs.
type PlannerConfig struct {
	// Use the deterministic keypoint graph instead of the sampled roadmap.
	SimpleExploration    bool `json:"simple_exploration"`
	EnableMultithreading bool `json:"enable_multithreading"`
	MaxNumberClasses     int  `json:"max_number_classes"`

	ObstacleHeadingThreshold float64 `json:"obstacle_heading_threshold"`
	MinObstacleDist          float64 `json:"min_obstacle_dist"`

	RoadmapGraphNoSamples    int     `json:"roadmap_graph_no_samples"`
	RoadmapGraphAreaWidth    float64 `json:"roadmap_graph_area_width"`
	RoadmapMaxSampleAttempts int     `json:"roadmap_max_sample_attempts"`

	HSignaturePrescaler          float64 `json:"h_signature_prescaler"`
	HSignatureThreshold          float64 `json:"h_signature_threshold"`
	HSignatureDiscoveryThreshold float64 `json:"h_signature_discovery_threshold"`

	XYGoalTolerance float64 `json:"xy_goal_tolerance"`

	NoInnerIterations int `json:"no_inner_iterations"`
	NoOuterIterations int `json:"no_outer_iterations"`

	// Drop backwards-heading candidates while re-analyzing, before exploration.
	DeleteDetoursOnReanalysis bool `json:"delete_detours_on_reanalysis"`

	// Seconds a cycle is expected to take; longer cycles are logged. Zero disables the check.
	CycleBudget float64 `json:"cycle_budget_sec"`

	VisualizeGraph bool `json:"visualize_hc_graph"`
}

// NewDefaultPlannerConfig returns a config populated with the default values.
func NewDefaultPlannerConfig() *PlannerConfig {
	return &PlannerConfig{
		SimpleExploration:            false,
		EnableMultithreading:         true,
		MaxNumberClasses:             defaultMaxNumberClasses,
		ObstacleHeadingThreshold:     defaultObstacleHeadingThreshold,
		MinObstacleDist:              defaultMinObstacleDist,
		RoadmapGraphNoSamples:        defaultRoadmapGraphNoSamples,
		RoadmapGraphAreaWidth:        defaultRoadmapGraphAreaWidth,
		RoadmapMaxSampleAttempts:     defaultRoadmapMaxSampleAttempts,
		HSignaturePrescaler:          defaultHSignaturePrescaler,
		HSignatureThreshold:          defaultHSignatureThreshold,
		HSignatureDiscoveryThreshold: defaultHSignatureDiscoveryThreshold,
		XYGoalTolerance:              defaultXYGoalTolerance,
		NoInnerIterations:            defaultNoInnerIterations,
		NoOuterIterations:            defaultNoOuterIterations,
	}
}

// NewPlannerConfigFromAttributes overlays an attribute map, as found in a JSON config file, on top of the
// defaults. Unknown keys are rejected.
func NewPlannerConfigFromAttributes(attrs map[string]interface{}) (*PlannerConfig, error) {
	cfg := NewDefaultPlannerConfig()
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
		return nil, errors.Wrap(err, "cannot decode planner config")
	}
	if err := cfg.Validate("planner"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all parts of the config are valid.
func (cfg *PlannerConfig) Validate(path string) error {
	var err error
	if cfg.MaxNumberClasses < 1 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("max_number_classes", cfg.MaxNumberClasses, "[1, inf)"))
	}
	if cfg.ObstacleHeadingThreshold < 0 || cfg.ObstacleHeadingThreshold > math.Pi {
		err = multierr.Combine(err, utils.NewOutOfRangeError("obstacle_heading_threshold", cfg.ObstacleHeadingThreshold, "[0, pi]"))
	}
	if cfg.MinObstacleDist < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("min_obstacle_dist", cfg.MinObstacleDist, "[0, inf)"))
	}
	if cfg.RoadmapGraphNoSamples < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("roadmap_graph_no_samples", cfg.RoadmapGraphNoSamples, "[0, inf)"))
	}
	if cfg.RoadmapGraphAreaWidth < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("roadmap_graph_area_width", cfg.RoadmapGraphAreaWidth, "[0, inf)"))
	}
	if cfg.RoadmapMaxSampleAttempts < 1 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("roadmap_max_sample_attempts", cfg.RoadmapMaxSampleAttempts, "[1, inf)"))
	}
	if cfg.HSignaturePrescaler <= 0 || cfg.HSignaturePrescaler > 1 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("h_signature_prescaler", cfg.HSignaturePrescaler, "(0, 1]"))
	}
	if cfg.HSignatureThreshold < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("h_signature_threshold", cfg.HSignatureThreshold, "[0, inf)"))
	}
	if cfg.HSignatureDiscoveryThreshold < 0 {
		err = multierr.Combine(err,
			utils.NewOutOfRangeError("h_signature_discovery_threshold", cfg.HSignatureDiscoveryThreshold, "[0, inf)"))
	}
	if cfg.XYGoalTolerance < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("xy_goal_tolerance", cfg.XYGoalTolerance, "[0, inf)"))
	}
	if cfg.NoInnerIterations < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("no_inner_iterations", cfg.NoInnerIterations, "[0, inf)"))
	}
	if cfg.NoOuterIterations < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("no_outer_iterations", cfg.NoOuterIterations, "[0, inf)"))
	}
	if cfg.CycleBudget < 0 {
		err = multierr.Combine(err, utils.NewOutOfRangeError("cycle_budget_sec", cfg.CycleBudget, "[0, inf)"))
	}
	if err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

func (cfg *PlannerConfig) cycleBudget() time.Duration {
	return time.Duration(cfg.CycleBudget * float64(time.Second))
}
