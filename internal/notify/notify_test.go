package notify

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/kv"
	"github.com/sadopc/studyplan/internal/messages"
	"github.com/sadopc/studyplan/internal/throttle"
)

type recorder struct {
	notes []Note
}

func (r *recorder) Notify(title, body, tag string) {
	r.notes = append(r.notes, Note{Title: title, Body: body, Tag: tag})
}

func newTestGate(t *testing.T, prefs Prefs) (*Gate, *recorder, *throttle.Throttle) {
	t.Helper()
	clk := &clock.Fixed{T: time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local)}
	thr := throttle.New(kv.NewMemory(), clk)
	rec := &recorder{}
	g := NewGate(thr, messages.NewBank(rand.NewSource(1)), rec, func() Prefs { return prefs })
	return g, rec, thr
}

func TestLoadPrefsMissingMeansEnabled(t *testing.T) {
	vals := map[string]string{KeyExamAlerts: "false", KeyRevisionDue: "garbage"}
	p := LoadPrefs(func(k string) (string, error) {
		v, ok := vals[k]
		if !ok {
			return "", errors.New("missing")
		}
		return v, nil
	})
	want := Prefs{StudyReminders: true, ExamAlerts: false, RevisionDue: true, Milestones: true}
	if p != want {
		t.Fatalf("got %+v, want %+v", p, want)
	}
}

func TestPrefsAllows(t *testing.T) {
	p := AllEnabled()
	p.Milestones = false
	if p.Allows(throttle.ChapterComplete) || p.Allows(throttle.Streak) {
		t.Fatal("milestone categories should be off")
	}
	if !p.Allows(throttle.StudyBlock) || !p.Allows(throttle.ExamCountdown) {
		t.Fatal("other groups should be on")
	}
}

func TestGateDelivers(t *testing.T) {
	g, rec, _ := newTestGate(t, AllEnabled())
	if !g.Send(throttle.ChapterComplete, map[string]string{"chapter": "Light", "subject": "Physics"}) {
		t.Fatal("first send should go out")
	}
	if len(rec.notes) != 1 || rec.notes[0].Tag != "chapter_complete" || rec.notes[0].Title == "" {
		t.Fatalf("unexpected notes: %+v", rec.notes)
	}
	if g.Send(throttle.ChapterComplete, nil) {
		t.Fatal("cooldown should block the second send")
	}
}

func TestGateDisabledDoesNotSpendBudget(t *testing.T) {
	p := AllEnabled()
	p.ExamAlerts = false
	g, rec, thr := newTestGate(t, p)
	for i := 0; i < 20; i++ {
		g.Send(throttle.ExamCountdown, nil)
	}
	if len(rec.notes) != 0 || thr.SentToday() != 0 {
		t.Fatalf("disabled category leaked: notes=%d sent=%d", len(rec.notes), thr.SentToday())
	}
}

func TestQueue(t *testing.T) {
	q := NewQueue(2)
	q.Notify("a", "", "x")
	q.Notify("b", "", "x")
	q.Notify("c", "", "x")
	select {
	case <-q.Ready():
	default:
		t.Fatal("queue should signal")
	}
	notes := q.Drain()
	if len(notes) != 2 || notes[0].Title != "b" || notes[1].Title != "c" {
		t.Fatalf("unexpected notes: %+v", notes)
	}
	if len(q.Drain()) != 0 {
		t.Fatal("drain should clear")
	}
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, b}.Notify("t", "b", "tag")
	if len(a.notes) != 1 || len(b.notes) != 1 {
		t.Fatal("multi should fan out")
	}
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegramNotify(t *testing.T) {
	f := &fakeSender{}
	tg := &Telegram{api: f, chatID: 42}
	tg.Notify("Title", "Body", "streak")
	if len(f.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(f.sent))
	}
	msg, ok := f.sent[0].(tgbotapi.MessageConfig)
	if !ok || msg.ChatID != 42 || msg.Text != "Title\nBody" {
		t.Fatalf("unexpected message: %+v", f.sent[0])
	}

	// send failures are logged, not surfaced
	f.err = errors.New("network down")
	tg.Notify("Title", "Body", "streak")
}
