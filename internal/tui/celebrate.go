package tui

import (
	"fmt"

	"github.com/sadopc/studyplan/internal/milestone"
	"github.com/sadopc/studyplan/internal/notify"
	"github.com/sadopc/studyplan/internal/throttle"
)

// celebrateTag marks in-app celebrations in the note queue. They do not pass
// through the notification gate, so throttling never hides them.
const celebrateTag = "celebrate"

// Celebrator shows milestones as toasts.
type Celebrator struct {
	q *notify.Queue
}

func NewCelebrator(q *notify.Queue) Celebrator {
	return Celebrator{q: q}
}

func (c Celebrator) Celebrate(e milestone.Event) {
	if c.q == nil {
		return
	}
	title, body := celebration(e)
	c.q.Notify(title, body, celebrateTag)
}

func celebration(e milestone.Event) (title, body string) {
	p := e.Params
	switch e.Category {
	case throttle.ChapterComplete:
		return "🎉 Chapter complete", fmt.Sprintf("%s · %s", p["subject"], p["chapter"])
	case throttle.Streak:
		return fmt.Sprintf("🔥 %s-day streak", e.Detail), fmt.Sprintf("You're on %s days in a row.", p["streak"])
	case throttle.GrammarMastery:
		return "🏆 Grammar mastered", fmt.Sprintf("%s: %s answers, all correct", p["category"], p["attempts"])
	case throttle.DailyGoal:
		return "✅ Daily goal reached", fmt.Sprintf("%s hours studied today", p["hours"])
	}
	return "🎉 Milestone", e.Detail
}
