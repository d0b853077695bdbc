// Package progression decides which lessons a learner may enter and lays
// them out along the zigzag game path.
package progression

const (
	cycleLength = 8
	stepPixels  = 40
)

// Position is the horizontal placement of a lesson card on the path.
type Position struct {
	RightPosition int  `json:"right_position"`
	IsFirst       bool `json:"is_first"`
	IsLast        bool `json:"is_last"`
}

// CalculatePosition maps a lesson's index within its unit to a zigzag offset.
// totalCount is the index of the unit's last lesson. Any integer index is
// valid; the curve repeats every eight lessons.
func CalculatePosition(index, totalCount int) Position {
	cycleIndex := ((index % cycleLength) + cycleLength) % cycleLength

	var level int
	switch {
	case cycleIndex <= 2:
		level = cycleIndex
	case cycleIndex <= 6:
		level = 4 - cycleIndex
	default:
		level = cycleIndex - cycleLength
	}

	return Position{
		RightPosition: level * stepPixels,
		IsFirst:       index == 0,
		IsLast:        index == totalCount,
	}
}
