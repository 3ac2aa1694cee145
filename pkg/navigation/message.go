package navigation

import (
	"fmt"
	"math"
)

// StraightEnoughDegrees is the heading below which the user is on course.
const StraightEnoughDegrees = 1.5

// Message turns a heading and lateral offset into a spoken-style
// instruction. A lateral of zero counts as left.
func Message(heading, lateral float64) string {
	if heading < StraightEnoughDegrees {
		return "go straight"
	}
	side := "left"
	if lateral > 0 {
		side = "right"
	}
	return fmt.Sprintf("turn %s by %d degrees", side, int(math.Round(heading)))
}
