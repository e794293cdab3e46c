// Package planner builds the time-blocked study plan for a day.
//
// The day is painted minute by minute: sleep and meal windows first (later
// routine anchors overwrite earlier ones, so a broken routine still yields a
// non-overlapping cover), then the remaining waking minutes are cut into
// study blocks until the daily target is met, and whatever is left is free.
// Study blocks are shared out between subjects in proportion to a weight
// built from backlog, difficulty and exam proximity.
package planner

import (
	"fmt"
	"math"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/sadopc/studyplan/internal/clock"
)

// Policy is the tunable part of the scheduler.
type Policy struct {
	DifficultyWeight float64 `json:"difficulty_weight"`
	ExamWeight       float64 `json:"exam_weight"`
	HorizonDays      int     `json:"horizon_days"`

	MaxBlockMinutes int `json:"max_block_minutes"`
	MinBlockMinutes int `json:"min_block_minutes"`
	BreakMinutes    int `json:"break_minutes"`

	BreakfastMinutes int `json:"breakfast_minutes"`
	LunchMinutes     int `json:"lunch_minutes"`
	SnackMinutes     int `json:"snack_minutes"`
	DinnerMinutes    int `json:"dinner_minutes"`
}

func DefaultPolicy() Policy {
	return Policy{
		DifficultyWeight: 0.25,
		ExamWeight:       3.0,
		HorizonDays:      60,
		MaxBlockMinutes:  60,
		MinBlockMinutes:  20,
		BreakMinutes:     10,
		BreakfastMinutes: 30,
		LunchMinutes:     45,
		SnackMinutes:     20,
		DinnerMinutes:    45,
	}
}

// Input is everything a day plan depends on.
type Input struct {
	Routine     Routine
	Subjects    Registry
	TargetHours float64
	Exams       []Exam
}

// Planner memoizes plans per day key. A cached plan is reused only while the
// input fingerprint is unchanged.
type Planner struct {
	mu     sync.Mutex
	policy Policy
	cache  map[string]cacheEntry
}

type cacheEntry struct {
	fingerprint uint64
	blocks      []Block
}

func New(p Policy) *Planner {
	return &Planner{policy: p, cache: make(map[string]cacheEntry)}
}

func (p *Planner) Policy() Policy {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.policy
}

// SetPolicy replaces the weights and drops every cached plan.
func (p *Planner) SetPolicy(pol Policy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policy = pol
	p.cache = make(map[string]cacheEntry)
}

// DayPlan returns the ordered blocks for day. The only error is a malformed
// day key.
func (p *Planner) DayPlan(day string, in Input) ([]Block, error) {
	date, err := clock.ParseDayKey(day, nil)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fp, err := hashstructure.Hash(struct {
		Input  Input
		Policy Policy
	}{in, p.policy}, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, fmt.Errorf("fingerprint plan input: %w", err)
	}
	if e, ok := p.cache[day]; ok && e.fingerprint == fp {
		return copyBlocks(e.blocks), nil
	}

	blocks := Build(clock.DayKey(date), in, p.policy)
	p.prune(day)
	p.cache[day] = cacheEntry{fingerprint: fp, blocks: blocks}
	return copyBlocks(blocks), nil
}

// prune keeps yesterday and later; day keys sort chronologically.
func (p *Planner) prune(day string) {
	oldest := clock.AddDays(day, -1)
	for k := range p.cache {
		if k < oldest {
			delete(p.cache, k)
		}
	}
}

func copyBlocks(b []Block) []Block {
	out := make([]Block, len(b))
	copy(out, b)
	return out
}

// cell kinds on the day timeline
const (
	cellFree = iota
	cellSleep
	cellBreakfast
	cellLunch
	cellSnack
	cellDinner
	cellStudy // + slot index
)

var fixedLabels = map[int]struct {
	typ   BlockType
	label string
}{
	cellSleep:     {BlockSleep, "Sleep"},
	cellBreakfast: {BlockMeal, "Breakfast"},
	cellLunch:     {BlockMeal, "Lunch"},
	cellSnack:     {BlockMeal, "Snack"},
	cellDinner:    {BlockMeal, "Dinner"},
}

// Build computes the plan without caching.
func Build(day string, in Input, pol Policy) []Block {
	var timeline [clock.MinutesPerDay]int
	r := in.Routine
	wake, sleep := r.Wake.Normalize(), r.Sleep.Normalize()

	paintMeal := func(at clock.Minutes, dur, cell int) {
		from := int(at.Normalize())
		to := from + dur
		if to > clock.MinutesPerDay {
			to = clock.MinutesPerDay
		}
		for m := from; m < to; m++ {
			timeline[m] = cell
		}
	}
	paintMeal(r.Breakfast, pol.BreakfastMinutes, cellBreakfast)
	paintMeal(r.Lunch, pol.LunchMinutes, cellLunch)
	paintMeal(r.Snack, pol.SnackMinutes, cellSnack)
	paintMeal(r.Dinner, pol.DinnerMinutes, cellDinner)
	if sleep != wake {
		for m := int(sleep); m != int(wake); m = (m + 1) % clock.MinutesPerDay {
			timeline[m] = cellSleep
		}
	}

	studyable := func(m int) bool {
		if timeline[m] != cellFree || m < int(wake) {
			return false
		}
		return sleep <= wake || m < int(sleep)
	}

	weights := subjectWeights(day, in, pol)
	var slots []int
	if len(weights) > 0 {
		slots = carveStudySlots(&timeline, studyable, int(math.Round(finiteOr(in.TargetHours, 0)*60)), pol)
	}
	assignments := assignSubjects(slots, weights, in.Subjects)

	var blocks []Block
	start := 0
	for m := 1; m <= clock.MinutesPerDay; m++ {
		if m < clock.MinutesPerDay && timeline[m] == timeline[start] {
			continue
		}
		blocks = append(blocks, makeBlock(timeline[start], clock.Minutes(start), clock.Minutes(m), assignments))
		start = m
	}
	return blocks
}

func makeBlock(cell int, start, end clock.Minutes, assignments []slotAssignment) Block {
	if cell >= cellStudy {
		a := assignments[cell-cellStudy]
		return Block{
			Type:       BlockStudy,
			Start:      start,
			End:        end,
			SubjectKey: a.subject,
			Chapter:    a.chapter,
			Label:      a.label,
		}
	}
	if f, ok := fixedLabels[cell]; ok {
		return Block{Type: f.typ, Start: start, End: end, Label: f.label}
	}
	return Block{Type: BlockFree, Start: start, End: end, Label: "Free"}
}

// carveStudySlots marks study slots on the timeline and returns their sizes.
func carveStudySlots(timeline *[clock.MinutesPerDay]int, studyable func(int) bool, remaining int, pol Policy) []int {
	minBlock := pol.MinBlockMinutes
	if minBlock < 1 {
		minBlock = 1
	}
	maxBlock := pol.MaxBlockMinutes
	if maxBlock < minBlock {
		maxBlock = minBlock
	}

	var slots []int
	m := 0
	for m < clock.MinutesPerDay && remaining >= minBlock {
		if !studyable(m) {
			m++
			continue
		}
		end := m
		for end < clock.MinutesPerDay && studyable(end) {
			end++
		}
		for cursor := m; remaining >= minBlock; {
			size := min(maxBlock, end-cursor, remaining)
			// never leave a remainder too small to schedule
			if left := remaining - size; left > 0 && left < minBlock && size-(minBlock-left) >= minBlock {
				size -= minBlock - left
			}
			if size < minBlock {
				break
			}
			for i := cursor; i < cursor+size; i++ {
				timeline[i] = cellStudy + len(slots)
			}
			slots = append(slots, size)
			remaining -= size
			cursor += size + pol.BreakMinutes
		}
		m = end
	}
	return slots
}

type subjectWeight struct {
	key    string
	weight float64
}

// subjectWeights returns positive weights in key order.
func subjectWeights(day string, in Input, pol Policy) []subjectWeight {
	def := DefaultPolicy()
	pol.DifficultyWeight = finiteOr(pol.DifficultyWeight, def.DifficultyWeight)
	pol.ExamWeight = finiteOr(pol.ExamWeight, def.ExamWeight)

	var out []subjectWeight
	for _, key := range in.Subjects.Keys() {
		s := in.Subjects[key]
		backlog := len(s.Unfinished())
		if backlog == 0 {
			continue
		}
		prox, ok := examFactor(day, key, in.Exams, pol)
		if !ok {
			continue
		}
		d := s.Difficulty
		if d == 0 {
			d = 3
		}
		d = max(1, min(5, d))
		w := float64(backlog) * (1 + pol.DifficultyWeight*float64(d-1)) * prox
		if w > 0 {
			out = append(out, subjectWeight{key: key, weight: w})
		}
	}
	return out
}

// finiteOr returns v unless it is NaN or infinite.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// examFactor grows as the nearest upcoming exam approaches. A subject whose
// exams are all in the past is not scheduled.
func examFactor(day, subject string, exams []Exam, pol Policy) (float64, bool) {
	nearest, seen := -1, false
	for _, e := range exams {
		if e.Subject != subject {
			continue
		}
		seen = true
		d, err := clock.DaysBetween(day, e.Date)
		if err != nil || d < 0 {
			continue
		}
		if nearest < 0 || d < nearest {
			nearest = d
		}
	}
	if !seen {
		return 1, true
	}
	if nearest < 0 {
		return 0, false
	}
	h := pol.HorizonDays
	if h <= 0 || nearest >= h {
		return 1, true
	}
	return 1 + pol.ExamWeight*float64(h-nearest)/float64(h), true
}

type slotAssignment struct {
	subject string
	chapter string
	label   string
}

// assignSubjects hands each slot to the subject furthest below its weighted
// share. Iterating keys in order with a strict comparison breaks ties by key.
func assignSubjects(slots []int, weights []subjectWeight, reg Registry) []slotAssignment {
	total, wsum := 0, 0.0
	for _, s := range slots {
		total += s
	}
	for _, w := range weights {
		wsum += w.weight
	}
	assigned := make([]float64, len(weights))
	picks := make(map[string]int)
	out := make([]slotAssignment, len(slots))
	for i, size := range slots {
		best, bestDeficit := 0, math.Inf(-1)
		for j, w := range weights {
			deficit := w.weight/wsum*float64(total) - assigned[j]
			if deficit > bestDeficit+1e-9 {
				best, bestDeficit = j, deficit
			}
		}
		assigned[best] += float64(size)
		key := weights[best].key
		subj := reg[key]
		unfinished := subj.Unfinished()
		ch := unfinished[picks[key]%len(unfinished)].Name
		picks[key]++
		name := subj.Name
		if name == "" {
			name = SubjectName(key)
		}
		out[i] = slotAssignment{subject: key, chapter: ch, label: name + ": " + ch}
	}
	return out
}
