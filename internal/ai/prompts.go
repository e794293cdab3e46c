package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/credits"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
)

const systemPrompt = "You are a calm, encouraging study coach for a student preparing for the ICSE Class 10 board exams. Keep answers short and practical."

// GrammarCategories are the English grammar drills offered.
var GrammarCategories = []string{
	"tenses",
	"prepositions",
	"active_passive",
	"direct_indirect",
	"transformation",
	"subject_verb_agreement",
}

// BriefingPrompt asks for a short plan-of-the-day summary.
func BriefingPrompt(day string, blocks []planner.Block, st *state.State) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a 4-6 line morning briefing for %s.\n", day)
	fmt.Fprintf(&b, "Target: %.1f study hours. Current streak: %d days.\n", st.TargetHours, st.Streak.Count)

	b.WriteString("Study blocks:\n")
	n := 0
	for _, blk := range blocks {
		if blk.Type != planner.BlockStudy {
			continue
		}
		n++
		fmt.Fprintf(&b, "- %s-%s %s\n", blk.Start, blk.End, blk.Label)
	}
	if n == 0 {
		b.WriteString("- none, every chapter is complete\n")
	}

	for _, e := range st.Exams {
		d, err := clock.DaysBetween(day, e.Date)
		if err != nil || d < 0 || d > 30 {
			continue
		}
		fmt.Fprintf(&b, "Exam: %s in %d day(s).\n", planner.SubjectName(e.Subject), d)
	}
	b.WriteString("Mention the most urgent subject and one concrete tip.")

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}

// GrammarPrompt asks for one multiple-choice question.
func GrammarPrompt(category string) []Message {
	topic := strings.ReplaceAll(category, "_", " ")
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Write one ICSE-style English grammar question on %s with four options labelled A-D. "+
				"End with a line 'Answer: <letter>'.", topic)},
	}
}

// ParseAnswer pulls the answer letter out of a grammar question.
func ParseAnswer(text string) (question string, answer string) {
	idx := strings.LastIndex(text, "Answer:")
	if idx < 0 {
		return strings.TrimSpace(text), ""
	}
	ans := strings.TrimSpace(text[idx+len("Answer:"):])
	if ans != "" {
		ans = strings.ToUpper(ans[:1])
	}
	return strings.TrimSpace(text[:idx]), ans
}

// Service charges credits for AI features.
type Service struct {
	ai     Completer
	ledger *credits.Ledger
}

func NewService(c Completer, l *credits.Ledger) *Service {
	return &Service{ai: c, ledger: l}
}

// Available reports whether a backend is configured.
func (s *Service) Available() bool { return s != nil && s.ai != nil }

// Run generates text for feature. The balance is checked first and charged
// only once text came back.
func (s *Service) Run(ctx context.Context, f credits.Feature, msgs []Message) (string, error) {
	if !s.Available() {
		return "", &Error{Op: string(f), Message: "AI features are not configured", Err: ErrNoAPIKey}
	}
	if !s.ledger.CanAfford(f) {
		return "", fmt.Errorf("%s: %w", f, credits.ErrInsufficient)
	}
	text, err := s.ai.Complete(ctx, msgs)
	if err != nil {
		return "", err
	}
	if err := s.ledger.Spend(ctx, f); err != nil {
		log.Printf("ai: charge %s: %v", f, err)
	}
	return text, nil
}
