package progression

import (
	"log/slog"

	"github.com/p-n-ai/pai-path/internal/curriculum"
)

// Node is one lesson card on the game path.
type Node struct {
	LessonID   string                  `json:"lesson_id"`
	Title      string                  `json:"title"`
	Status     curriculum.LessonStatus `json:"status"`
	XPReward   int                     `json:"xp_reward"`
	IsPremium  bool                    `json:"is_premium"`
	Percentage int                     `json:"percentage"`
	Access
	Position Position `json:"position"`
}

// UnitPath is a unit header followed by its lesson cards.
type UnitPath struct {
	UnitID      string `json:"unit_id"`
	Title       string `json:"title"`
	Color       string `json:"color"`
	IsPremium   bool   `json:"is_premium"`
	IsCompleted bool   `json:"is_completed"`
	Nodes       []Node `json:"nodes"`
}

// ChapterPath groups the units of a chapter.
type ChapterPath struct {
	ChapterID   string     `json:"chapter_id"`
	Title       string     `json:"title"`
	IsPremium   bool       `json:"is_premium"`
	IsCompleted bool       `json:"is_completed"`
	Units       []UnitPath `json:"units"`
}

// Path is the learner-specific view of a whole language.
type Path struct {
	LanguageID string        `json:"language_id"`
	Name       string        `json:"name"`
	HasPremium bool          `json:"has_premium"`
	Chapters   []ChapterPath `json:"chapters"`
	EarnedXP   int           `json:"earned_xp"`
	TotalXP    int           `json:"total_xp"`
}

// BuildPath evaluates every lesson of lang for a learner. The tree is sorted
// by Order on a copy before indexing.
func BuildPath(lang curriculum.Language, hasPremium bool) Path {
	lang = lang.Clone()
	curriculum.SortTree(&lang)

	p := Path{
		LanguageID: lang.ID,
		Name:       lang.Name,
		HasPremium: hasPremium,
		Chapters:   make([]ChapterPath, 0, len(lang.Chapters)),
	}

	for _, ch := range lang.Chapters {
		cp := ChapterPath{
			ChapterID:   ch.ID,
			Title:       ch.Title,
			IsPremium:   ch.IsPremium,
			IsCompleted: ch.IsCompleted,
			Units:       make([]UnitPath, 0, len(ch.Units)),
		}
		for _, u := range ch.Units {
			up := UnitPath{
				UnitID:      u.ID,
				Title:       u.Title,
				Color:       u.Color,
				IsPremium:   u.IsPremium,
				IsCompleted: u.IsCompleted,
				Nodes:       make([]Node, 0, len(u.Lessons)),
			}
			last := len(u.Lessons) - 1
			for i := range u.Lessons {
				ls := &u.Lessons[i]
				access, err := CheckAccess(lang.Chapters, ch, u, *ls, hasPremium)
				if err != nil {
					// Unreachable for a tree walked from its own root.
					slog.Error("path access check failed", "lesson_id", ls.ID, "error", err)
					access = progressionLocked
				}

				up.Nodes = append(up.Nodes, Node{
					LessonID:   ls.ID,
					Title:      ls.Title,
					Status:     ls.Status,
					XPReward:   ls.XPReward,
					IsPremium:  ls.IsPremium,
					Percentage: CompletionPercentage(ls),
					Access:     access,
					Position:   CalculatePosition(i, last),
				})

				p.TotalXP += ls.XPReward
				if ls.Status == curriculum.StatusCompleted {
					p.EarnedXP += ls.XPReward
				}
			}
			cp.Units = append(cp.Units, up)
		}
		p.Chapters = append(p.Chapters, cp)
	}

	return p
}

// NextLesson returns the first accessible lesson that is not yet completed.
func (p Path) NextLesson() (Node, bool) {
	for _, ch := range p.Chapters {
		for _, u := range ch.Units {
			for _, n := range u.Nodes {
				if n.Accessible && n.Status != curriculum.StatusCompleted {
					return n, true
				}
			}
		}
	}
	return Node{}, false
}

// FindNode returns the card for a lesson ID.
func (p Path) FindNode(lessonID string) (Node, bool) {
	for _, ch := range p.Chapters {
		for _, u := range ch.Units {
			for _, n := range u.Nodes {
				if n.LessonID == lessonID {
					return n, true
				}
			}
		}
	}
	return Node{}, false
}
