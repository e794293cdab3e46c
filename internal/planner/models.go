package planner

import (
	"sort"

	"github.com/sadopc/studyplan/internal/clock"
)

type ChapterStatus string

const (
	NotStarted    ChapterStatus = "not_started"
	InProgress    ChapterStatus = "in_progress"
	Completed     ChapterStatus = "completed"
	NeedsRevision ChapterStatus = "needs_revision"
)

var statusRank = map[ChapterStatus]int{
	NotStarted:    0,
	InProgress:    1,
	Completed:     2,
	NeedsRevision: 3,
}

// Valid reports whether s is a known status.
func (s ChapterStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition enforces forward-only status changes, with the single
// exception of a revised chapter going back to completed.
func CanTransition(from, to ChapterStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == NeedsRevision && to == Completed {
		return true
	}
	return statusRank[to] >= statusRank[from]
}

type Chapter struct {
	Name               string        `json:"name"`
	Status             ChapterStatus `json:"status"`
	RevisionDate       string        `json:"revision_date,omitempty"`
	RevisionIntervals  []int         `json:"revision_intervals,omitempty"`
	RevisionsCompleted int           `json:"revisions_completed,omitempty"`
}

type Subject struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Difficulty int       `json:"difficulty"` // 1 (easy) .. 5 (weak subject)
	Chapters   []Chapter `json:"chapters"`
}

// Unfinished returns the chapters still needing study time, in-progress and
// revision work first, preserving syllabus order within each group.
func (s Subject) Unfinished() []Chapter {
	var active, rest []Chapter
	for _, c := range s.Chapters {
		switch c.Status {
		case Completed:
		case InProgress, NeedsRevision:
			active = append(active, c)
		default:
			rest = append(rest, c)
		}
	}
	return append(active, rest...)
}

// Registry maps subject key to subject.
type Registry map[string]Subject

// Keys returns subject keys in sorted order.
func (r Registry) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Progress returns completed and total chapter counts across all subjects.
func (r Registry) Progress() (done, total int) {
	for _, s := range r {
		for _, c := range s.Chapters {
			total++
			if c.Status == Completed {
				done++
			}
		}
	}
	return done, total
}

var coreSubjects = map[string]string{
	"english_language":   "English Language",
	"english_literature": "English Literature",
	"history_civics":     "History & Civics",
	"geography":          "Geography",
	"mathematics":        "Mathematics",
	"physics":            "Physics",
	"chemistry":          "Chemistry",
	"biology":            "Biology",
}

// SecondLanguages and Electives are the selectable group II/III options.
var SecondLanguages = map[string]string{
	"hindi":    "Hindi",
	"french":   "French",
	"sanskrit": "Sanskrit",
	"bengali":  "Bengali",
}

var Electives = map[string]string{
	"computer_applications": "Computer Applications",
	"economic_applications": "Economic Applications",
	"commercial_studies":    "Commercial Studies",
	"physical_education":    "Physical Education",
	"art":                   "Art",
}

// SubjectKeys returns the registry keys for a language/elective selection.
// Unknown selections are ignored.
func SubjectKeys(secondLanguage, elective string) []string {
	keys := make([]string, 0, len(coreSubjects)+2)
	for k := range coreSubjects {
		keys = append(keys, k)
	}
	if _, ok := SecondLanguages[secondLanguage]; ok {
		keys = append(keys, secondLanguage)
	}
	if _, ok := Electives[elective]; ok {
		keys = append(keys, elective)
	}
	sort.Strings(keys)
	return keys
}

// SubjectName returns the display name for a key.
func SubjectName(key string) string {
	for _, m := range []map[string]string{coreSubjects, SecondLanguages, Electives} {
		if n, ok := m[key]; ok {
			return n
		}
	}
	return key
}

// NewRegistry builds an empty registry for the selection, keeping any
// subjects from prev that are still selected.
func NewRegistry(secondLanguage, elective string, prev Registry) Registry {
	r := make(Registry)
	for _, k := range SubjectKeys(secondLanguage, elective) {
		if s, ok := prev[k]; ok {
			r[k] = s
			continue
		}
		r[k] = Subject{Key: k, Name: SubjectName(k), Difficulty: 3}
	}
	return r
}

// Routine holds the six daily anchors.
type Routine struct {
	Wake      clock.Minutes `json:"wake"`
	Breakfast clock.Minutes `json:"breakfast"`
	Lunch     clock.Minutes `json:"lunch"`
	Snack     clock.Minutes `json:"snack"`
	Dinner    clock.Minutes `json:"dinner"`
	Sleep     clock.Minutes `json:"sleep"`
}

func DefaultRoutine() Routine {
	return Routine{
		Wake:      clock.MustMinutes("06:00"),
		Breakfast: clock.MustMinutes("07:30"),
		Lunch:     clock.MustMinutes("13:00"),
		Snack:     clock.MustMinutes("17:00"),
		Dinner:    clock.MustMinutes("20:30"),
		Sleep:     clock.MustMinutes("22:30"),
	}
}

// WellFormed reports whether the anchors increase strictly around the day
// cycle, starting at wake.
func (r Routine) WellFormed() bool {
	anchors := []clock.Minutes{r.Wake, r.Breakfast, r.Lunch, r.Snack, r.Dinner, r.Sleep}
	base := r.Wake.Normalize()
	prev := -1
	for _, a := range anchors {
		off := int((a.Normalize() - base).Normalize())
		if off <= prev {
			return false
		}
		prev = off
	}
	return true
}

type Exam struct {
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

type BlockType string

const (
	BlockMeal  BlockType = "meal"
	BlockSleep BlockType = "sleep"
	BlockStudy BlockType = "study"
	BlockFree  BlockType = "free"
)

// Block is the half-open interval [Start, End) in minutes since midnight.
type Block struct {
	Type       BlockType     `json:"type"`
	Start      clock.Minutes `json:"start"`
	End        clock.Minutes `json:"end"`
	SubjectKey string        `json:"subject_key,omitempty"`
	Chapter    string        `json:"chapter,omitempty"`
	Label      string        `json:"label"`
}

func (b Block) Minutes() int { return int(b.End - b.Start) }

// NextStudyBlock returns the study block in progress at now, or the next one.
func NextStudyBlock(blocks []Block, now clock.Minutes) (Block, bool) {
	for _, b := range blocks {
		if b.Type == BlockStudy && b.End > now {
			return b, true
		}
	}
	return Block{}, false
}

// StudyMinutes totals scheduled study time.
func StudyMinutes(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		if b.Type == BlockStudy {
			n += b.Minutes()
		}
	}
	return n
}
