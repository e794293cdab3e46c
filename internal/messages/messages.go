// Package messages is the bank of motivational and reminder copy.
package messages

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

type Message struct {
	Title string
	Body  string
}

// Templates use {placeholder} names filled from the params passed to Pick.
var table = map[string][]Message{
	"streak": {
		{"🔥 {streak}-day streak!", "You've studied {streak} days in a row. Keep the chain alive."},
		{"Streak unlocked: {streak} days", "Consistency beats cramming. {streak} days and counting."},
		{"{streak} days strong", "Your future self will thank you for these {streak} days."},
	},
	"daily_goal": {
		{"🎯 Daily goal reached", "{hours} hours today. That's the target, anything more is a bonus."},
		{"Target hit!", "You've logged {hours} hours. Take a proper break."},
	},
	"chapter_complete": {
		{"✅ Chapter done: {chapter}", "{subject} just got lighter. One less thing before the exam."},
		{"{chapter} complete", "Nice work on {subject}. Revision is scheduled for you."},
		{"Ticked off {chapter}", "Chapter by chapter, {subject} is coming together."},
	},
	"grammar_mastery": {
		{"🏆 Grammar mastered: {category}", "100% accuracy over {attempts} attempts."},
		{"{category} nailed", "{attempts} attempts, zero mistakes."},
	},
	"morning": {
		{"☀️ Good morning", "Today's plan has {blocks} study blocks. First up: {first}."},
		{"Rise and revise", "{blocks} study blocks on the plan. Start with {first}."},
	},
	"evening": {
		{"🌙 Wind-down check", "You logged {hours} hours today. Sleep is part of studying too."},
		{"Day's wrap-up", "{hours} hours in the books. Rest well."},
	},
	"streak_risk": {
		{"⚠️ Your {streak}-day streak is at risk", "One session before bed keeps it alive."},
		{"Don't break the chain", "Nothing logged today yet. A short session saves your {streak}-day streak."},
	},
	"exam_countdown": {
		{"📅 {subject} exam in {days} day(s)", "Focus on revision and past papers."},
		{"{days} day(s) to {subject}", "Prioritise weak chapters and get enough sleep."},
	},
	"study_block": {
		{"📚 Time for {subject}", "{label} starts at {start}."},
		{"Next up: {subject}", "{label} at {start}. Phone face down."},
	},
	"revision_due": {
		{"🔁 Revision due", "{count} chapter(s) are due for revision today."},
		{"Time to revisit", "{count} chapter(s) need a revision pass."},
	},
	"break_done": {
		{"Break's over", "Ready for the next focus session?"},
		{"Back to it", "Your break has ended. Start the timer when ready."},
	},
}

// Bank picks copy at random. A nil source gives a time-seeded generator.
type Bank struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewBank(src rand.Source) *Bank {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Bank{rng: rand.New(src)}
}

// Categories lists the categories that have copy.
func Categories() []string {
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Pick returns a message for category with params substituted. Unknown
// categories get a generic message so callers never deliver an empty alert.
func (b *Bank) Pick(category string, params map[string]string) Message {
	choices, ok := table[category]
	if !ok || len(choices) == 0 {
		return Message{Title: "Study reminder", Body: "Keep going, you're doing well."}
	}
	b.mu.Lock()
	m := choices[b.rng.Intn(len(choices))]
	b.mu.Unlock()
	return fill(m, params)
}

func fill(m Message, params map[string]string) Message {
	if len(params) == 0 {
		return m
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return Message{Title: r.Replace(m.Title), Body: r.Replace(m.Body)}
}
