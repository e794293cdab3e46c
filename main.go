package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"reflect"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/studyplan/internal/ai"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/config"
	"github.com/sadopc/studyplan/internal/credits"
	"github.com/sadopc/studyplan/internal/messages"
	"github.com/sadopc/studyplan/internal/milestone"
	"github.com/sadopc/studyplan/internal/notify"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/pushsched"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/store"
	"github.com/sadopc/studyplan/internal/syncer"
	"github.com/sadopc/studyplan/internal/throttle"
	"github.com/sadopc/studyplan/internal/tracker"
	"github.com/sadopc/studyplan/internal/tui"
)

// localSaveDelay coalesces bursts of edits into one database write.
const localSaveDelay = 250 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	logFile, err := tea.LogToFile(cfg.LogPath, "studyplan")
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()

	ctx := context.Background()
	st, err := s.LoadState(ctx)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	c := state.NewContainer(st, clk)

	var remote syncer.Remote
	if cfg.SyncDir != "" {
		remote = syncer.FileRemote{Dir: cfg.SyncDir}
	}
	local, cloud := openSync(ctx, c, s, remote, cfg.UserID)

	settings := s.LoadSettings()

	q := notify.NewQueue(16)
	out := notify.Multi{notify.Log{}, q}
	if cfg.Telegram() {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("telegram: %v", err)
		} else {
			out = append(out, tg)
		}
	}
	gate := notify.NewGate(throttle.New(s, clk), messages.NewBank(nil), out, func() notify.Prefs {
		return notify.LoadPrefs(s.GetSetting)
	})

	detector := milestone.New(s, gate, tui.NewCelebrator(q), milestone.LogAnalytics{}, clk)
	c.Subscribe(detector.Observe)

	ledger := openLedger(c, settings.DailyCredits, creditWriter{s: s, c: c})
	if _, err := ledger.Refill(ctx, clock.DayKey(clk.Now())); err != nil {
		log.Printf("credits: %v", err)
	}

	var completer ai.Completer
	if cfg.OpenAIKey != "" {
		client, err := ai.New(cfg.OpenAIKey, cfg.OpenAIModel, ai.WithURL(cfg.OpenAIURL))
		if err != nil {
			log.Printf("ai: %v", err)
		} else {
			completer = client
		}
	}

	tr := tracker.New(c)
	if n, err := tr.MarkDueRevisions(); err != nil {
		log.Printf("revisions: %v", err)
	} else if n > 0 {
		log.Printf("revisions: %d chapter(s) due", n)
	}

	pl := planner.New(settings.Policy)

	sched := pushsched.New(gate,
		func() (pushsched.Input, error) {
			today := clock.DayKey(clk.Now())
			// runs at midnight too, so the daily top-up rides along
			if _, err := ledger.Refill(ctx, today); err != nil {
				log.Printf("credits: %v", err)
			}
			snap := c.Snapshot()
			blocks, err := pl.DayPlan(today, snap.PlanInput())
			if err != nil {
				return pushsched.Input{}, err
			}
			return pushsched.Input{
				Blocks:       blocks,
				Exams:        snap.Exams,
				Routine:      snap.Routine,
				DueRevisions: tracker.DueRevisions(snap),
				LeadMinutes:  s.LoadSettings().LeadMinutes,
			}, nil
		},
		func() pushsched.Status {
			snap := c.Snapshot()
			return pushsched.Status{HoursToday: snap.HoursOn(clock.DayKey(clk.Now())), Streak: snap.Streak.Count}
		},
		clk,
	)
	if err := sched.Start(); err != nil {
		log.Printf("pushsched: %v", err)
	} else {
		log.Printf("pushsched: %d alarms armed", sched.Armed())
	}
	defer sched.Stop()

	rearm := func() {
		if _, err := sched.Rearm(); err != nil {
			log.Printf("pushsched: rearm: %v", err)
		}
	}
	// Listeners run under the container lock and Rearm reads a snapshot.
	c.Subscribe(func(prev, next *state.State) {
		if !reflect.DeepEqual(prev.PlanInput(), next.PlanInput()) {
			go rearm()
		}
	})

	app := tui.NewApp(tui.Deps{
		Store:   s,
		State:   c,
		Tracker: tr,
		Planner: pl,
		Gate:    gate,
		Notes:   q,
		AI:      ai.NewService(completer, ledger),
		OnSettingsSaved: func(store.Settings) {
			go rearm()
		},
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, runErr := p.Run()

	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := local.Close(flushCtx); err != nil {
		log.Printf("save: %v", err)
	}
	if cloud != nil {
		if err := cloud.Close(flushCtx); err != nil {
			log.Printf("sync: %v", err)
		}
	}
	return runErr
}

// openSync subscribes the local save and, when remote is set, replaces the
// document with the synced copy and pushes every later change back. The
// local save is subscribed first so a pulled document is written locally.
func openSync(ctx context.Context, c *state.Container, local, remote syncer.Remote, userID string) (saves, cloud *syncer.Debouncer) {
	saves = syncer.NewDebouncer(local, userID, localSaveDelay)
	c.Subscribe(saves.Observe)
	if remote == nil {
		return saves, nil
	}
	if found, err := syncer.Pull(ctx, remote, userID, c); err != nil {
		log.Printf("sync: %v", err)
	} else if found {
		log.Printf("sync: loaded document for %s", userID)
	}
	cloud = syncer.NewDebouncer(remote, userID, syncer.DefaultDelay)
	c.Subscribe(cloud.Observe)
	return saves, cloud
}

// openLedger seeds the credit ledger from the current document, which is
// the synced copy once openSync has run.
func openLedger(c *state.Container, allowance int, w credits.BalanceWriter) *credits.Ledger {
	wallet := c.Snapshot().Credits
	return credits.NewLedger(wallet.Balance, wallet.RefillDay, allowance, w)
}

// creditWriter persists the balance and mirrors it into the document so
// views and synced copies see the same number.
type creditWriter struct {
	s *store.Store
	c *state.Container
}

func (w creditWriter) WriteBalance(ctx context.Context, balance int, refillDay string) error {
	if err := w.s.WriteBalance(ctx, balance, refillDay); err != nil {
		return err
	}
	return w.c.Update(func(st *state.State) error {
		st.Credits = state.Credits{Balance: balance, RefillDay: refillDay}
		return nil
	})
}
