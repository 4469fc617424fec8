package motionplan

import "errors"

var (
	// errNotInitialized is raised as a panic when a zero-value planner is used.
	errNotInitialized = errors.New("homotopy class planner used before initialization, construct it with NewHomotopyClassPlanner")

	// ErrSamplingExhausted is reported when a roadmap sample kept landing in collision. The sample is skipped.
	ErrSamplingExhausted = errors.New("could not draw a collision free roadmap sample")
)

// NewEmptyPlanError is returned when a global plan has no poses to take start and goal from.
func NewEmptyPlanError() error {
	return errors.New("global plan must contain at least one pose")
}
