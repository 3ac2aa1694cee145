package navigation

import "errors"

// Sentinel errors for navigation geometry and session state.
var (
	// ErrDegenerateRay is returned when origin and target share the same
	// horizontal position, so no direction exists to project along.
	ErrDegenerateRay = errors.New("navigation: degenerate ray")

	// ErrDegenerateHeading is returned when the target sits on the camera,
	// leaving the heading undefined.
	ErrDegenerateHeading = errors.New("navigation: target at camera position")

	// ErrMissingAnchor is returned when offsets are requested without both
	// origin and target anchors.
	ErrMissingAnchor = errors.New("navigation: origin and target anchors required")

	// ErrNoEngine is returned when a session is created without a tracking engine.
	ErrNoEngine = errors.New("navigation: tracking engine required")
)
