// Package engine is the facade every transport talks to. It owns the current
// history snapshot and settings and swaps both atomically on reload, so a
// request always sees one consistent history for its whole duration.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/latest"
	"github.com/xtding233/loto-backend/internal/ledger"
	"github.com/xtding233/loto-backend/internal/loader"
	"github.com/xtding233/loto-backend/internal/metrics"
)

// Options wires the engine's collaborators. Only Settings is required.
type Options struct {
	Settings config.Settings
	Log      *logrus.Entry
	Metrics  *metrics.Metrics
	Ledger   ledger.Store      // nil => in-memory
	Latest   *latest.Client    // nil => built from Settings.Latest
}

type Engine struct {
	log     *logrus.Entry
	metrics *metrics.Metrics
	ledger  ledger.Store
	latest  *latest.Client

	reloadMu sync.Mutex // serializes reloads; readers never take it
	settings atomic.Pointer[config.Settings]
	snap     atomic.Pointer[snapshot]
}

// snapshot is one immutable history plus lazily computed detector results.
type snapshot struct {
	hist     *history.History
	report   loader.Report
	loadedAt time.Time

	summaryOnce sync.Once
	summary     Summary
}

// New builds an engine holding an empty history until LoadHistory or Install.
func New(opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	e := &Engine{
		log:     log.WithField("component", "engine"),
		metrics: opts.Metrics,
		ledger:  opts.Ledger,
		latest:  opts.Latest,
	}
	if e.ledger == nil {
		e.ledger = ledger.NewMemoryStore()
	}
	if e.latest == nil {
		l := opts.Settings.Latest
		e.latest = latest.NewClient(l.URL, l.Timeout, l.RatePerSecond, log)
	}
	s := opts.Settings
	e.settings.Store(&s)
	e.snap.Store(&snapshot{hist: history.Empty(s.Rules), loadedAt: time.Now()})
	return e
}

// Settings returns the active settings.
func (e *Engine) Settings() config.Settings {
	return *e.settings.Load()
}

// History returns the current snapshot's history.
func (e *Engine) History() *history.History {
	return e.snap.Load().hist
}

// LoadReport describes how the current snapshot was loaded.
func (e *Engine) LoadReport() (loader.Report, time.Time) {
	s := e.snap.Load()
	return s.report, s.loadedAt
}

// Install swaps in an already built history.
func (e *Engine) Install(h *history.History, rep loader.Report) {
	e.snap.Store(&snapshot{hist: h, report: rep, loadedAt: time.Now()})
	e.metrics.ObserveHistory(h.Len(), len(rep.Rejected), nil)
}

// ReloadHistory reads the configured history file and swaps it in.
//
// A file with no data installs an empty history. A malformed file, or one that
// cannot be read, keeps the previous snapshot and returns the error.
func (e *Engine) ReloadHistory() error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()
	return e.reloadLocked(e.Settings())
}

func (e *Engine) reloadLocked(s config.Settings) error {
	h, rep, err := loader.LoadFile(s.History.Path, s.Rules)
	log := e.log.WithFields(logrus.Fields{
		"path":     s.History.Path,
		"rows":     rep.Rows,
		"accepted": rep.Accepted,
		"rejected": len(rep.Rejected),
	})
	switch {
	case err == nil:
	case errors.Is(err, loader.ErrNoData) && h != nil:
		log.WithError(err).Warn("history has no data, serving empty history")
	default:
		e.metrics.ObserveHistory(0, 0, err)
		log.WithError(err).Error("history reload failed, keeping previous snapshot")
		return err
	}
	if len(rep.Rejected) > 0 {
		log.Warn("history rows rejected")
	}
	e.Install(h, rep)
	log.Info("history loaded")
	return nil
}

// ApplySettings swaps in new settings. When the rules or the history path
// change the history is reloaded under the new settings first; if that fails
// nothing is swapped.
func (e *Engine) ApplySettings(s config.Settings) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	old := e.Settings()
	if old.Rules != s.Rules || old.History.Path != s.History.Path {
		if err := e.reloadLocked(s); err != nil {
			return err
		}
	}
	e.settings.Store(&s)
	e.log.WithField("version", s.Version).Info("settings applied")
	return nil
}
