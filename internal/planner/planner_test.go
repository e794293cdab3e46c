package planner

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/sadopc/studyplan/internal/clock"
)

func chapters(n int, status ChapterStatus) []Chapter {
	out := make([]Chapter, n)
	for i := range out {
		out[i] = Chapter{Name: fmt.Sprintf("Chapter %d", i+1), Status: status}
	}
	return out
}

func testInput() Input {
	reg := NewRegistry("hindi", "computer_applications", nil)
	for k, s := range reg {
		s.Chapters = chapters(4, NotStarted)
		reg[k] = s
	}
	return Input{
		Routine:     DefaultRoutine(),
		Subjects:    reg,
		TargetHours: 6,
	}
}

// checkCover asserts blocks are ordered, non-overlapping and span the day.
func checkCover(t *testing.T, blocks []Block) {
	t.Helper()
	if len(blocks) == 0 {
		t.Fatal("no blocks")
	}
	if blocks[0].Start != 0 {
		t.Fatalf("first block starts at %d", blocks[0].Start)
	}
	for i, b := range blocks {
		if b.End <= b.Start {
			t.Fatalf("block %d empty or inverted: %+v", i, b)
		}
		if i > 0 && b.Start != blocks[i-1].End {
			t.Fatalf("gap or overlap between %+v and %+v", blocks[i-1], b)
		}
	}
	if last := blocks[len(blocks)-1]; last.End != clock.MinutesPerDay {
		t.Fatalf("last block ends at %d", last.End)
	}
}

// ============================================================
// Cover invariants
// ============================================================

func TestDayPlanCoversDay(t *testing.T) {
	p := New(DefaultPolicy())
	blocks, err := p.DayPlan("2026-02-10", testInput())
	if err != nil {
		t.Fatal(err)
	}
	checkCover(t, blocks)

	if got := StudyMinutes(blocks); got != 360 {
		t.Fatalf("expected 360 study minutes, got %d", got)
	}
}

func TestDayPlanFixedBlocks(t *testing.T) {
	blocks := Build("2026-02-10", testInput(), DefaultPolicy())
	labels := map[string]Block{}
	for _, b := range blocks {
		if b.Type == BlockMeal || b.Type == BlockSleep {
			labels[fmt.Sprintf("%s%d", b.Label, int(b.Start))] = b
		}
	}
	if _, ok := labels["Breakfast450"]; !ok {
		t.Fatalf("breakfast at 07:30 missing: %+v", blocks)
	}
	if blocks[0].Type != BlockSleep || blocks[0].End != clock.MustMinutes("06:00") {
		t.Fatalf("day should open with sleep until wake: %+v", blocks[0])
	}
	if last := blocks[len(blocks)-1]; last.Type != BlockSleep || last.Start != clock.MustMinutes("22:30") {
		t.Fatalf("day should close with sleep from 22:30: %+v", last)
	}
}

func TestStudyBlocksRespectPolicy(t *testing.T) {
	pol := DefaultPolicy()
	blocks := Build("2026-02-10", testInput(), pol)
	for i, b := range blocks {
		if b.Type != BlockStudy {
			continue
		}
		if b.Minutes() > pol.MaxBlockMinutes || b.Minutes() < pol.MinBlockMinutes {
			t.Fatalf("study block size %d outside policy: %+v", b.Minutes(), b)
		}
		if b.Start < clock.MustMinutes("06:00") || b.End > clock.MustMinutes("22:30") {
			t.Fatalf("study outside waking hours: %+v", b)
		}
		if b.SubjectKey == "" || b.Chapter == "" || b.Label == "" {
			t.Fatalf("study block missing subject info: %+v", b)
		}
		if i+1 < len(blocks) && blocks[i+1].Type == BlockStudy {
			t.Fatalf("study blocks should be separated by a break: %+v %+v", b, blocks[i+1])
		}
	}
}

func TestDegenerateRoutinesStillCover(t *testing.T) {
	routines := []Routine{
		{}, // everything at midnight
		{Wake: 600, Breakfast: 500, Lunch: 400, Snack: 300, Dinner: 200, Sleep: 100},
		{Wake: 360, Breakfast: 360, Lunch: 360, Snack: 360, Dinner: 360, Sleep: 360},
		{Wake: 420, Breakfast: 480, Lunch: 780, Snack: 1020, Dinner: 1410, Sleep: 30}, // sleep after midnight, dinner wraps
		{Wake: -30, Breakfast: 2000, Lunch: 780, Snack: 1020, Dinner: 1260, Sleep: 1380},
	}
	for i, r := range routines {
		in := testInput()
		in.Routine = r
		in.TargetHours = 12
		blocks := Build("2026-02-10", in, DefaultPolicy())
		t.Run(fmt.Sprint(i), func(t *testing.T) { checkCover(t, blocks) })
	}
}

func TestOverlappingAnchorsLaterWins(t *testing.T) {
	r := DefaultRoutine()
	r.Dinner = clock.MustMinutes("22:00") // 45 min dinner runs into 22:30 sleep
	in := testInput()
	in.Routine = r
	blocks := Build("2026-02-10", in, DefaultPolicy())
	checkCover(t, blocks)
	for _, b := range blocks {
		if b.Label == "Dinner" && b.End != clock.MustMinutes("22:30") {
			t.Fatalf("sleep should cut dinner short: %+v", b)
		}
	}
}

func TestRoutineWellFormed(t *testing.T) {
	if !DefaultRoutine().WellFormed() {
		t.Fatal("default routine should be well formed")
	}
	r := DefaultRoutine()
	r.Lunch = r.Breakfast
	if r.WellFormed() {
		t.Fatal("equal anchors are not strictly increasing")
	}
	late := Routine{Wake: 420, Breakfast: 480, Lunch: 780, Snack: 1020, Dinner: 1260, Sleep: 30}
	if !late.WellFormed() {
		t.Fatal("sleep after midnight is still a valid cycle")
	}
}

// ============================================================
// Subject allocation
// ============================================================

func TestCompletedChaptersNeverScheduled(t *testing.T) {
	in := testInput()
	s := in.Subjects["physics"]
	s.Chapters = []Chapter{
		{Name: "Force", Status: Completed},
		{Name: "Light", Status: NotStarted},
		{Name: "Sound", Status: Completed},
	}
	in.Subjects["physics"] = s
	in.TargetHours = 12

	blocks := Build("2026-02-10", in, DefaultPolicy())
	for _, b := range blocks {
		if b.SubjectKey == "physics" && b.Chapter != "Light" {
			t.Fatalf("completed chapter scheduled: %+v", b)
		}
	}
}

func TestAllCompletedProducesNoStudy(t *testing.T) {
	in := testInput()
	for k, s := range in.Subjects {
		s.Chapters = chapters(3, Completed)
		in.Subjects[k] = s
	}
	blocks := Build("2026-02-10", in, DefaultPolicy())
	checkCover(t, blocks)
	for _, b := range blocks {
		if b.Type == BlockStudy {
			t.Fatalf("unexpected study block: %+v", b)
		}
	}
}

func TestNearExamDominates(t *testing.T) {
	in := testInput()
	in.Routine = Routine{
		Wake:      clock.MustMinutes("06:00"),
		Breakfast: clock.MustMinutes("07:00"),
		Lunch:     clock.MustMinutes("13:00"),
		Snack:     clock.MustMinutes("17:00"),
		Dinner:    clock.MustMinutes("20:00"),
		Sleep:     clock.MustMinutes("22:30"),
	}
	in.TargetHours = 8
	for k, s := range in.Subjects {
		s.Chapters = chapters(5, Completed)
		in.Subjects[k] = s
	}
	chem := in.Subjects["chemistry"]
	chem.Chapters = chapters(10, NotStarted)
	in.Subjects["chemistry"] = chem
	in.Exams = []Exam{{Subject: "chemistry", Date: "2026-02-12"}}

	blocks := Build("2026-02-10", in, DefaultPolicy())
	checkCover(t, blocks)
	study := 0
	for _, b := range blocks {
		if b.Type != BlockStudy {
			continue
		}
		study++
		if b.SubjectKey != "chemistry" {
			t.Fatalf("expected all study on chemistry, got %+v", b)
		}
	}
	if study == 0 {
		t.Fatal("expected study blocks")
	}
	if StudyMinutes(blocks) != 480 {
		t.Fatalf("expected the full 8h target, got %d minutes", StudyMinutes(blocks))
	}
}

func TestExamProximityShiftsShare(t *testing.T) {
	in := Input{
		Routine:     DefaultRoutine(),
		TargetHours: 8,
		Subjects: Registry{
			"biology": {Key: "biology", Name: "Biology", Difficulty: 3, Chapters: chapters(5, NotStarted)},
			"physics": {Key: "physics", Name: "Physics", Difficulty: 3, Chapters: chapters(5, NotStarted)},
		},
		Exams: []Exam{{Subject: "physics", Date: "2026-02-11"}},
	}
	blocks := Build("2026-02-10", in, DefaultPolicy())
	share := map[string]int{}
	for _, b := range blocks {
		share[b.SubjectKey] += b.Minutes()
	}
	if share["physics"] <= share["biology"] {
		t.Fatalf("nearer exam should get more time: %v", share)
	}
}

func TestDifficultyShiftsShare(t *testing.T) {
	in := Input{
		Routine:     DefaultRoutine(),
		TargetHours: 8,
		Subjects: Registry{
			"geography": {Key: "geography", Difficulty: 1, Chapters: chapters(4, NotStarted)},
			"history":   {Key: "history", Difficulty: 5, Chapters: chapters(4, NotStarted)},
		},
	}
	blocks := Build("2026-02-10", in, DefaultPolicy())
	share := map[string]int{}
	for _, b := range blocks {
		share[b.SubjectKey] += b.Minutes()
	}
	if share["history"] <= share["geography"] {
		t.Fatalf("weak subject should get more time: %v", share)
	}
}

func TestNonFiniteWeightsFallBack(t *testing.T) {
	in := testInput()
	in.Exams = []Exam{{Subject: "physics", Date: "2026-02-20"}}
	want := Build("2026-02-10", in, DefaultPolicy())

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		pol := DefaultPolicy()
		pol.DifficultyWeight, pol.ExamWeight = v, v
		for _, w := range subjectWeights("2026-02-10", in, pol) {
			if math.IsNaN(w.weight) || math.IsInf(w.weight, 0) {
				t.Fatalf("weight %v: %s got %v", v, w.key, w.weight)
			}
		}
		got := Build("2026-02-10", in, pol)
		checkCover(t, got)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("weight %v: plan differs from the default policy", v)
		}
	}
}

func TestNaNTargetPlansNoStudy(t *testing.T) {
	in := testInput()
	in.TargetHours = math.NaN()
	blocks := Build("2026-02-10", in, DefaultPolicy())
	checkCover(t, blocks)
	for _, b := range blocks {
		if b.Type == BlockStudy {
			t.Fatalf("unexpected study block %+v", b)
		}
	}
}

func TestPastExamSubjectSkipped(t *testing.T) {
	in := Input{
		Routine:     DefaultRoutine(),
		TargetHours: 4,
		Subjects: Registry{
			"art":     {Key: "art", Chapters: chapters(3, NotStarted)},
			"physics": {Key: "physics", Chapters: chapters(3, NotStarted)},
		},
		Exams: []Exam{{Subject: "art", Date: "2026-02-01"}},
	}
	for _, b := range Build("2026-02-10", in, DefaultPolicy()) {
		if b.SubjectKey == "art" {
			t.Fatalf("subject with finished exam scheduled: %+v", b)
		}
	}
}

func TestTiesBrokenByKey(t *testing.T) {
	in := Input{
		Routine:     DefaultRoutine(),
		TargetHours: 1,
		Subjects: Registry{
			"zoology": {Key: "zoology", Chapters: chapters(2, NotStarted)},
			"algebra": {Key: "algebra", Chapters: chapters(2, NotStarted)},
		},
	}
	blocks := Build("2026-02-10", in, DefaultPolicy())
	first, ok := NextStudyBlock(blocks, 0)
	if !ok || first.SubjectKey != "algebra" {
		t.Fatalf("expected algebra first, got %+v", first)
	}
}

func TestInProgressChapterFirst(t *testing.T) {
	s := Subject{Chapters: []Chapter{
		{Name: "A", Status: NotStarted},
		{Name: "B", Status: Completed},
		{Name: "C", Status: InProgress},
		{Name: "D", Status: NeedsRevision},
	}}
	got := s.Unfinished()
	if len(got) != 3 || got[0].Name != "C" || got[1].Name != "D" || got[2].Name != "A" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

// ============================================================
// Memoization
// ============================================================

func TestDayPlanStableAndCached(t *testing.T) {
	p := New(DefaultPolicy())
	in := testInput()
	a, _ := p.DayPlan("2026-02-10", in)
	a[0].Label = "mutated by caller"
	b, _ := p.DayPlan("2026-02-10", in)
	if b[0].Label == "mutated by caller" {
		t.Fatal("cached plan must not be shared with callers")
	}
	if len(a) != len(b) {
		t.Fatal("same inputs should give the same plan")
	}
}

func TestDayPlanInvalidatedOnInputChange(t *testing.T) {
	p := New(DefaultPolicy())
	in := testInput()
	before, _ := p.DayPlan("2026-02-10", in)

	in.TargetHours = 2
	after, _ := p.DayPlan("2026-02-10", in)
	if StudyMinutes(before) == StudyMinutes(after) {
		t.Fatal("changed target should recompute the plan")
	}

	p.SetPolicy(Policy{MaxBlockMinutes: 30, MinBlockMinutes: 30})
	small, _ := p.DayPlan("2026-02-10", in)
	for _, b := range small {
		if b.Type == BlockStudy && b.Minutes() != 30 {
			t.Fatalf("policy change not applied: %+v", b)
		}
	}
}

func TestDayPlanBadKey(t *testing.T) {
	p := New(DefaultPolicy())
	if _, err := p.DayPlan("10/02/2026", testInput()); err == nil {
		t.Fatal("expected error for malformed day key")
	}
}

func TestCachePruned(t *testing.T) {
	p := New(DefaultPolicy())
	in := testInput()
	for _, d := range []string{"2026-02-01", "2026-02-02", "2026-02-03", "2026-02-10"} {
		p.DayPlan(d, in)
	}
	if len(p.cache) != 1 {
		t.Fatalf("expected old days pruned, cache has %d entries", len(p.cache))
	}
}

// ============================================================
// Registry and statuses
// ============================================================

func TestSubjectKeysSelection(t *testing.T) {
	keys := SubjectKeys("french", "art")
	has := map[string]bool{}
	for _, k := range keys {
		has[k] = true
	}
	if !has["french"] || !has["art"] || !has["physics"] {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if has["hindi"] {
		t.Fatal("unselected language included")
	}
	if len(SubjectKeys("klingon", "juggling")) != len(coreSubjects) {
		t.Fatal("unknown selections should be ignored")
	}
}

func TestNewRegistryKeepsExisting(t *testing.T) {
	prev := Registry{"physics": {Key: "physics", Name: "Physics", Difficulty: 5, Chapters: chapters(2, InProgress)}}
	r := NewRegistry("hindi", "art", prev)
	if len(r["physics"].Chapters) != 2 || r["physics"].Difficulty != 5 {
		t.Fatal("existing subject should be kept")
	}
	if r["hindi"].Name != "Hindi" {
		t.Fatalf("new subject name = %q", r["hindi"].Name)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ChapterStatus
		want     bool
	}{
		{NotStarted, InProgress, true},
		{InProgress, Completed, true},
		{Completed, NeedsRevision, true},
		{NeedsRevision, Completed, true},
		{Completed, InProgress, false},
		{InProgress, NotStarted, false},
		{NotStarted, "bogus", false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v", tt.from, tt.to, got)
		}
	}
}
