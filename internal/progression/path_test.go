package progression_test

import (
	"testing"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progression"
)

func pathLanguage() curriculum.Language {
	return curriculum.Language{
		ID:   "es",
		Name: "Spanish",
		Chapters: []curriculum.Chapter{
			{
				ID: "c2", Order: 2, Title: "Travel", IsPremium: true,
				Units: []curriculum.Unit{{ID: "u3", Order: 1, Lessons: []curriculum.Lesson{{ID: "l4", Order: 1, XPReward: 30}}}},
			},
			{
				ID: "c1", Order: 1, Title: "Basics",
				Units: []curriculum.Unit{{
					ID: "u1", Order: 1, Color: "green",
					Lessons: []curriculum.Lesson{
						{ID: "l3", Order: 3, XPReward: 10, Status: curriculum.StatusLocked},
						{ID: "l1", Order: 1, XPReward: 10, Status: curriculum.StatusCompleted,
							Exercises: []curriculum.Exercise{{ID: "e1", Completed: true}}},
						{ID: "l2", Order: 2, XPReward: 20, Status: curriculum.StatusAvailable,
							Exercises: []curriculum.Exercise{{ID: "e2", Completed: true}, {ID: "e3"}}},
					},
				}},
			},
		},
	}
}

func TestBuildPath(t *testing.T) {
	p := progression.BuildPath(pathLanguage(), false)

	if len(p.Chapters) != 2 || p.Chapters[0].ChapterID != "c1" {
		t.Fatalf("chapters not ordered: %+v", p.Chapters)
	}

	nodes := p.Chapters[0].Units[0].Nodes
	wantIDs := []string{"l1", "l2", "l3"}
	wantAccess := []bool{true, true, false}
	wantPct := []int{100, 50, 0}
	wantRight := []int{0, 40, 80}
	for i, n := range nodes {
		if n.LessonID != wantIDs[i] {
			t.Errorf("nodes[%d].LessonID = %q, want %q", i, n.LessonID, wantIDs[i])
		}
		if n.Accessible != wantAccess[i] {
			t.Errorf("nodes[%d].Accessible = %v, want %v", i, n.Accessible, wantAccess[i])
		}
		if n.Percentage != wantPct[i] {
			t.Errorf("nodes[%d].Percentage = %d, want %d", i, n.Percentage, wantPct[i])
		}
		if n.Position.RightPosition != wantRight[i] {
			t.Errorf("nodes[%d].RightPosition = %d, want %d", i, n.Position.RightPosition, wantRight[i])
		}
	}
	if !nodes[0].Position.IsFirst || !nodes[2].Position.IsLast {
		t.Error("first/last flags not set on path ends")
	}
	if nodes[2].Reason != progression.LockProgression {
		t.Errorf("nodes[2].Reason = %q, want progression", nodes[2].Reason)
	}

	premiumNode := p.Chapters[1].Units[0].Nodes[0]
	if premiumNode.Accessible || premiumNode.Reason != progression.LockPremium {
		t.Errorf("premium chapter node = %+v, want premium lock", premiumNode)
	}

	if p.TotalXP != 70 {
		t.Errorf("TotalXP = %d, want 70", p.TotalXP)
	}
	if p.EarnedXP != 10 {
		t.Errorf("EarnedXP = %d, want 10", p.EarnedXP)
	}
}

func TestBuildPath_DoesNotMutateInput(t *testing.T) {
	lang := pathLanguage()
	progression.BuildPath(lang, true)

	if lang.Chapters[0].ID != "c2" || lang.Chapters[1].Units[0].Lessons[0].ID != "l3" {
		t.Error("BuildPath() reordered its input")
	}
}

func TestPath_NextLesson(t *testing.T) {
	p := progression.BuildPath(pathLanguage(), false)

	next, ok := p.NextLesson()
	if !ok {
		t.Fatal("NextLesson() found nothing")
	}
	if next.LessonID != "l2" {
		t.Errorf("NextLesson() = %q, want l2", next.LessonID)
	}
}

func TestPath_FindNode(t *testing.T) {
	p := progression.BuildPath(pathLanguage(), true)

	n, ok := p.FindNode("l4")
	if !ok {
		t.Fatal("FindNode(l4) not found")
	}
	if n.Reason == progression.LockPremium {
		t.Error("premium user should not see premium lock")
	}
	if _, ok := p.FindNode("missing"); ok {
		t.Error("FindNode(missing) should not be found")
	}
}
