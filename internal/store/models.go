package store

type Setting struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// SessionFilter narrows timer session queries. Empty fields match all.
type SessionFilter struct {
	Subject string
	From    string // day key, inclusive
	To      string // day key, inclusive
	Limit   int
}

// DayHours is the study total for one day.
type DayHours struct {
	Day      string  `db:"day"`
	Hours    float64 `db:"hours"`
	Sessions int     `db:"sessions"`
}

// SubjectMinutes is the time spent per subject over a range.
type SubjectMinutes struct {
	Subject  string `db:"subject"`
	Minutes  int    `db:"minutes"`
	Sessions int    `db:"sessions"`
}

type profileRow struct {
	SecondLanguage    string  `db:"second_language"`
	Elective          string  `db:"elective"`
	Wake              int     `db:"wake"`
	Breakfast         int     `db:"breakfast"`
	Lunch             int     `db:"lunch"`
	Snack             int     `db:"snack"`
	Dinner            int     `db:"dinner"`
	Sleep             int     `db:"sleep"`
	TargetHours       float64 `db:"target_hours"`
	StreakCount       int     `db:"streak_count"`
	LastStudyDate     string  `db:"last_study_date"`
	RecoveryAvailable bool    `db:"recovery_available"`
	BeforeReset       int     `db:"before_reset"`
	UpdatedAt         string  `db:"updated_at"`
}

type subjectRow struct {
	Key        string `db:"key"`
	Name       string `db:"name"`
	Difficulty int    `db:"difficulty"`
}

type chapterRow struct {
	SubjectKey         string `db:"subject_key"`
	Position           int    `db:"position"`
	Name               string `db:"name"`
	Status             string `db:"status"`
	RevisionDate       string `db:"revision_date"`
	RevisionIntervals  string `db:"revision_intervals"`
	RevisionsCompleted int    `db:"revisions_completed"`
}

type examRow struct {
	Subject string `db:"subject"`
	Date    string `db:"date"`
}

type sessionRow struct {
	ID      string `db:"id"`
	Date    string `db:"date"`
	Subject string `db:"subject"`
	Chapter string `db:"chapter"`
	Minutes int    `db:"minutes"`
}

type grammarRow struct {
	Category string `db:"category"`
	Attempts int    `db:"attempts"`
	Correct  int    `db:"correct"`
}
