package tracker

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
)

var today = time.Date(2026, 2, 10, 18, 0, 0, 0, time.Local)

func testState(t *testing.T) *state.State {
	t.Helper()
	st := state.Default()
	st.TargetHours = 2
	phys := st.Subjects["physics"]
	phys.Chapters = []planner.Chapter{
		{Name: "Force", Status: planner.NotStarted},
		{Name: "Light", Status: planner.InProgress, RevisionIntervals: []int{2}},
	}
	st.Subjects["physics"] = phys
	return st
}

// ============================================================
// Study log
// ============================================================

func TestLogStudyTimeAppendsAndAccumulates(t *testing.T) {
	st := testState(t)
	LogStudyTime(st, today, "a", "physics", "Force", 25)
	LogStudyTime(st, today, "b", "physics", "Light", 50)

	if len(st.Sessions) != 2 || st.Sessions[1].ID != "b" || st.Sessions[1].Date != "2026-02-10" {
		t.Fatalf("sessions: %+v", st.Sessions)
	}
	day := st.StudyLog["2026-02-10"]
	if day.Sessions != 2 || day.Hours != 1.25 {
		t.Fatalf("day log: %+v", day)
	}
	if st.Streak.Count != 1 || st.Streak.LastStudyDate != "2026-02-10" {
		t.Fatalf("first ever session should start a streak: %+v", st.Streak)
	}
}

func TestStreakContinuesFromYesterday(t *testing.T) {
	st := testState(t)
	st.Streak = state.Streak{Count: 3, LastStudyDate: "2026-02-09"}
	LogStudyTime(st, today, "a", "physics", "Force", 25)
	LogStudyTime(st, today, "b", "physics", "Force", 25)
	if st.Streak.Count != 4 {
		t.Fatalf("expected 4, got %d", st.Streak.Count)
	}
}

func TestStreakHardReset(t *testing.T) {
	st := testState(t)
	st.Streak = state.Streak{Count: 9, LastStudyDate: "2026-02-01"}
	LogStudyTime(st, today, "a", "physics", "Force", 25)
	if st.Streak != (state.Streak{Count: 1, LastStudyDate: "2026-02-10"}) {
		t.Fatalf("unexpected streak: %+v", st.Streak)
	}
}

func TestStreakGraceAndRecovery(t *testing.T) {
	st := testState(t)
	st.Streak = state.Streak{Count: 5, LastStudyDate: "2026-02-08"}

	LogStudyTime(st, today, "a", "physics", "Force", 60)
	if st.Streak.Count != 1 || !st.Streak.RecoveryAvailable || st.Streak.BeforeReset != 5 {
		t.Fatalf("expected grace state, got %+v", st.Streak)
	}

	// 1h + 3h = 4h = 2 x target
	LogStudyTime(st, today, "b", "physics", "Force", 180)
	if st.Streak.Count != 6 || st.Streak.RecoveryAvailable || st.Streak.BeforeReset != 0 {
		t.Fatalf("expected recovered streak of 6, got %+v", st.Streak)
	}
}

func TestGraceNeedsStreakAboveOne(t *testing.T) {
	st := testState(t)
	st.Streak = state.Streak{Count: 1, LastStudyDate: "2026-02-08"}
	LogStudyTime(st, today, "a", "physics", "Force", 25)
	if st.Streak.RecoveryAvailable || st.Streak.Count != 1 {
		t.Fatalf("no grace for a one-day streak: %+v", st.Streak)
	}
}

func TestGraceExpiresNextDay(t *testing.T) {
	st := testState(t)
	st.Streak = state.Streak{Count: 5, LastStudyDate: "2026-02-08"}
	LogStudyTime(st, today, "a", "physics", "Force", 25)
	LogStudyTime(st, today.AddDate(0, 0, 1), "b", "physics", "Force", 25)
	if st.Streak.Count != 2 || st.Streak.RecoveryAvailable {
		t.Fatalf("unused grace should lapse: %+v", st.Streak)
	}
}

// ============================================================
// Chapters and revisions
// ============================================================

func TestSetChapterStatusSchedulesRevision(t *testing.T) {
	st := testState(t)
	if err := SetChapterStatus(st, today, "physics", "Light", planner.Completed); err != nil {
		t.Fatal(err)
	}
	light := st.Subjects["physics"].Chapters[1]
	if light.Status != planner.Completed || light.RevisionDate != "2026-02-12" {
		t.Fatalf("unexpected chapter: %+v", light)
	}

	if n := MarkDueRevisions(st, "2026-02-11"); n != 0 {
		t.Fatalf("nothing due yet, got %d", n)
	}
	if n := MarkDueRevisions(st, "2026-02-12"); n != 1 {
		t.Fatalf("expected 1 due, got %d", n)
	}
	if DueRevisions(st) != 1 {
		t.Fatal("DueRevisions mismatch")
	}

	// revising completes the chapter again; its intervals are used up
	if err := SetChapterStatus(st, today, "physics", "Light", planner.Completed); err != nil {
		t.Fatal(err)
	}
	light = st.Subjects["physics"].Chapters[1]
	if light.RevisionsCompleted != 1 || light.RevisionDate != "" {
		t.Fatalf("unexpected chapter after revision: %+v", light)
	}
}

func TestSetChapterStatusDefaultIntervals(t *testing.T) {
	st := testState(t)
	SetChapterStatus(st, today, "physics", "Force", planner.Completed)
	if got := st.Subjects["physics"].Chapters[0].RevisionDate; got != clock.AddDays("2026-02-10", 3) {
		t.Fatalf("unexpected revision date %q", got)
	}
}

func TestSetChapterStatusErrors(t *testing.T) {
	st := testState(t)
	if err := SetChapterStatus(st, today, "latin", "x", planner.Completed); !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
	if err := SetChapterStatus(st, today, "physics", "x", planner.Completed); !errors.Is(err, ErrUnknownChapter) {
		t.Fatalf("expected ErrUnknownChapter, got %v", err)
	}
	if err := SetChapterStatus(st, today, "physics", "Light", planner.NotStarted); !errors.Is(err, ErrBadTransition) {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}
}

func TestRecordGrammarAttempt(t *testing.T) {
	st := testState(t)
	RecordGrammarAttempt(st, "tenses", true)
	RecordGrammarAttempt(st, "tenses", false)
	g := st.Grammar["tenses"]
	if g.Attempts != 2 || g.Correct != 1 || g.Accuracy() != 0.5 {
		t.Fatalf("unexpected stat: %+v", g)
	}
	if err := RecordGrammarAttempt(st, "", true); err == nil {
		t.Fatal("expected error for empty category")
	}
}

// ============================================================
// Tracker over a container
// ============================================================

func TestTrackerLogStudy(t *testing.T) {
	clk := &clock.Fixed{T: today}
	c := state.NewContainer(testState(t), clk)
	tr := New(c)

	var seen int
	c.Subscribe(func(prev, next *state.State) {
		seen++
		if len(next.Sessions) != len(prev.Sessions)+1 {
			t.Errorf("listener saw partial update")
		}
	})

	sess, err := tr.LogStudy("physics", "Force", 25)
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" || seen != 1 {
		t.Fatalf("id=%q seen=%d", sess.ID, seen)
	}
	if _, err := tr.LogStudy("physics", "Force", 0); !errors.Is(err, ErrInvalidMinutes) {
		t.Fatalf("expected ErrInvalidMinutes, got %v", err)
	}
}

func TestTrackerSetExamAndAddChapter(t *testing.T) {
	c := state.NewContainer(testState(t), &clock.Fixed{T: today})
	tr := New(c)
	if err := tr.SetExam("physics", "2026-03-01"); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetExam("physics", "2026-03-05"); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetExam("physics", "March"); err == nil {
		t.Fatal("expected bad date error")
	}
	if err := tr.AddChapter("physics", "Sound"); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddChapter("physics", "Sound"); err == nil {
		t.Fatal("expected duplicate chapter error")
	}
	snap := c.Snapshot()
	if len(snap.Exams) != 1 || snap.Exams[0].Date != "2026-03-05" {
		t.Fatalf("exams: %+v", snap.Exams)
	}
	if n := len(snap.Subjects["physics"].Chapters); n != 3 {
		t.Fatalf("expected 3 chapters, got %d", n)
	}
}

func TestTrackerSetDifficulty(t *testing.T) {
	c := state.NewContainer(testState(t), &clock.Fixed{T: today})
	tr := New(c)
	if err := tr.SetDifficulty("physics", 5); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetDifficulty("physics", 6); !errors.Is(err, ErrBadDifficulty) {
		t.Fatalf("expected ErrBadDifficulty, got %v", err)
	}
	if err := tr.SetDifficulty("astronomy", 2); !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
	if d := c.Snapshot().Subjects["physics"].Difficulty; d != 5 {
		t.Fatalf("difficulty = %d", d)
	}
}

func TestTrackerSetProfile(t *testing.T) {
	c := state.NewContainer(testState(t), &clock.Fixed{T: today})
	tr := New(c)

	p := Profile{SecondLanguage: "french", Elective: "art", Routine: planner.DefaultRoutine(), TargetHours: 5}
	if err := tr.SetProfile(p); err != nil {
		t.Fatal(err)
	}
	snap := c.Snapshot()
	if _, ok := snap.Subjects["french"]; !ok {
		t.Fatal("registry should include the new language")
	}
	if _, ok := snap.Subjects["hindi"]; ok {
		t.Fatal("old language should be dropped")
	}
	if len(snap.Subjects["physics"].Chapters) != 2 {
		t.Fatal("progress in kept subjects must survive")
	}
	if snap.TargetHours != 5 {
		t.Fatalf("target = %v", snap.TargetHours)
	}

	bad := p
	bad.Routine.Lunch = bad.Routine.Breakfast
	if err := tr.SetProfile(bad); !errors.Is(err, ErrBadRoutine) {
		t.Fatalf("expected ErrBadRoutine, got %v", err)
	}
	bad = p
	bad.TargetHours = 0
	if err := tr.SetProfile(bad); !errors.Is(err, ErrBadTarget) {
		t.Fatalf("expected ErrBadTarget, got %v", err)
	}
	bad = p
	bad.Elective = "knitting"
	if err := tr.SetProfile(bad); !errors.Is(err, ErrBadSelection) {
		t.Fatalf("expected ErrBadSelection, got %v", err)
	}
}

func TestTrackerSetProfileRejectsNonFiniteTarget(t *testing.T) {
	c := state.NewContainer(testState(t), &clock.Fixed{T: today})
	tr := New(c)

	for _, target := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		p := Profile{SecondLanguage: "hindi", Elective: "art", Routine: planner.DefaultRoutine(), TargetHours: target}
		if err := tr.SetProfile(p); !errors.Is(err, ErrBadTarget) {
			t.Fatalf("target %v: expected ErrBadTarget, got %v", target, err)
		}
	}
	if got := c.Snapshot().TargetHours; got != 2 {
		t.Fatalf("target changed to %v", got)
	}
}
