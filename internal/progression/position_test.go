package progression_test

import (
	"testing"

	"github.com/p-n-ai/pai-path/internal/progression"
)

func TestCalculatePosition_Sequence(t *testing.T) {
	want := []int{0, 40, 80, 40, 0, -40, -80, -40, 0, 40}

	for i, w := range want {
		if got := progression.CalculatePosition(i, 20).RightPosition; got != w {
			t.Errorf("CalculatePosition(%d).RightPosition = %d, want %d", i, got, w)
		}
	}
}

func TestCalculatePosition_Bounded(t *testing.T) {
	for i := -50; i < 200; i++ {
		got := progression.CalculatePosition(i, 200).RightPosition
		if got < -80 || got > 80 || got%40 != 0 {
			t.Fatalf("CalculatePosition(%d).RightPosition = %d, outside zigzag amplitude", i, got)
		}
	}
}

func TestCalculatePosition_Flags(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		total     int
		wantFirst bool
		wantLast  bool
	}{
		{"first of many", 0, 5, true, false},
		{"middle", 2, 5, false, false},
		{"last", 5, 5, false, true},
		{"single lesson", 0, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progression.CalculatePosition(tt.index, tt.total)
			if got.IsFirst != tt.wantFirst || got.IsLast != tt.wantLast {
				t.Errorf("CalculatePosition(%d, %d) = %+v, want first=%v last=%v",
					tt.index, tt.total, got, tt.wantFirst, tt.wantLast)
			}
		})
	}
}
