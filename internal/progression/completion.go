package progression

import (
	"math"

	"github.com/p-n-ai/pai-path/internal/curriculum"
)

// CompletionPercentage returns the share of completed exercises in a lesson,
// rounded to an integer in [0, 100]. A nil lesson or one without exercises
// yields 0.
func CompletionPercentage(l *curriculum.Lesson) int {
	if l == nil || len(l.Exercises) == 0 {
		return 0
	}

	completed := 0
	for _, ex := range l.Exercises {
		if ex.Completed {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(l.Exercises))))
}
