package motionplan

import (
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestDefaultPlannerConfig(t *testing.T) {
	cfg := NewDefaultPlannerConfig()
	test.That(t, cfg.Validate("planner"), test.ShouldBeNil)
	test.That(t, cfg.MaxNumberClasses, test.ShouldEqual, 4)
	test.That(t, cfg.EnableMultithreading, test.ShouldBeTrue)
	test.That(t, cfg.HSignaturePrescaler, test.ShouldEqual, 1.)
}

func TestPlannerConfigFromAttributes(t *testing.T) {
	cfg, err := NewPlannerConfigFromAttributes(map[string]interface{}{
		"simple_exploration":         true,
		"max_number_classes":         "3",
		"obstacle_heading_threshold": 1.0,
		"h_signature_prescaler":      0.8,
		"cycle_budget_sec":           0.2,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.SimpleExploration, test.ShouldBeTrue)
	test.That(t, cfg.MaxNumberClasses, test.ShouldEqual, 3)
	test.That(t, cfg.ObstacleHeadingThreshold, test.ShouldEqual, 1.)
	test.That(t, cfg.HSignaturePrescaler, test.ShouldEqual, 0.8)
	test.That(t, cfg.cycleBudget().Milliseconds(), test.ShouldEqual, int64(200))
	// untouched keys keep their defaults
	test.That(t, cfg.RoadmapGraphNoSamples, test.ShouldEqual, defaultRoadmapGraphNoSamples)

	_, err = NewPlannerConfigFromAttributes(map[string]interface{}{"max_classes": 3})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_classes")

	_, err = NewPlannerConfigFromAttributes(map[string]interface{}{"h_signature_prescaler": 1.5})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "h_signature_prescaler")
}

func TestPlannerConfigValidate(t *testing.T) {
	cfg := NewDefaultPlannerConfig()
	cfg.MaxNumberClasses = 0
	cfg.HSignaturePrescaler = 0
	cfg.RoadmapMaxSampleAttempts = 0
	cfg.ObstacleHeadingThreshold = 4
	err := cfg.Validate("planner")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "planner")
	for _, field := range []string{
		"max_number_classes", "h_signature_prescaler", "roadmap_max_sample_attempts", "obstacle_heading_threshold",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, field)
	}
	test.That(t, len(multierr.Errors(NewDefaultPlannerConfig().Validate("planner"))), test.ShouldEqual, 0)
}
