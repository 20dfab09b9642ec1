// Package timer is the device-local unlock timer controller. It keeps every
// managed app blocked by default, lifts the block for the exact duration an
// entitlement session granted, and re-blocks when the timer fires. Grants
// are persisted so a daemon restart cannot leave an app unlocked for longer
// than it was paid for.
package timer

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// EventType classifies controller notifications.
type EventType string

const (
	// EventUnblocked fires when an unlock grant takes effect.
	EventUnblocked EventType = "unblocked"
	// EventWarning fires two units before expiry, only for grants longer
	// than two units.
	EventWarning EventType = "warning"
	// EventBlocked fires when the app is re-blocked, either by timer expiry
	// or an explicit block.
	EventBlocked EventType = "blocked"
)

// Event is a controller notification delivered to subscribers.
type Event struct {
	Type      EventType
	AppRef    string
	SessionID string
	Remaining time.Duration
	At        time.Time
}

// grant is the in-memory state of one active unlock.
type grant struct {
	sessionID  string
	appRef     string
	expiresAt  time.Time
	generation uint64
	warnTimer  *time.Timer
	blockTimer *time.Timer
}

// Controller owns the block state of managed apps. All methods are safe for
// concurrent use.
type Controller struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger

	// unit is the length of one granted "minute". Production uses
	// time.Minute; tests shrink it to drive real timers quickly.
	unit time.Duration
	now  func() time.Time

	grants     map[string]*grant // keyed by appRef
	generation uint64

	subs      map[int]func(Event)
	nextSubID int
}

// Option configures a Controller.
type Option func(*Controller)

// WithUnit overrides the length of one granted minute.
func WithUnit(unit time.Duration) Option {
	return func(c *Controller) { c.unit = unit }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller backed by the given store.
func NewController(store Store, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		logger: logger,
		unit:   time.Minute,
		now:    time.Now,
		grants: make(map[string]*grant),
		subs:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a callback for controller events and returns a handle
// that removes exactly this subscription. Callbacks run on timer goroutines
// and must not block.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Unlock lifts the block on appRef for minutes units. An existing grant for
// the same app is replaced and its timers cancelled.
func (c *Controller) Unlock(sessionID, appRef string, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("minutes must be positive, got %d", minutes)
	}

	now := c.now()
	expiresAt := now.Add(time.Duration(minutes) * c.unit)

	if err := c.store.SaveSession(SessionRecord{
		SessionID: sessionID,
		AppRef:    appRef,
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	c.mu.Lock()
	replacedSessionID := ""
	if existing, ok := c.grants[appRef]; ok {
		existing.stopTimers()
		if existing.sessionID != sessionID {
			replacedSessionID = existing.sessionID
		}
	}

	c.generation++
	g := &grant{
		sessionID:  sessionID,
		appRef:     appRef,
		expiresAt:  expiresAt,
		generation: c.generation,
	}
	c.grants[appRef] = g
	c.scheduleLocked(g, minutes > 2)
	c.mu.Unlock()

	// The replaced grant's timers never fire, so nothing else removes its
	// persisted record; left behind it would be restored after a restart.
	if replacedSessionID != "" {
		if err := c.store.DeleteSession(replacedSessionID); err != nil {
			c.logger.Error("Failed to delete replaced unlock session", slog.String("error", err.Error()))
		}
	}

	c.logger.Info("App unblocked",
		slog.String("app_ref", appRef),
		slog.String("session_id", sessionID),
		slog.Int("minutes", minutes),
	)
	c.emit(Event{Type: EventUnblocked, AppRef: appRef, SessionID: sessionID, Remaining: expiresAt.Sub(now), At: now})
	return nil
}

// Block immediately re-blocks appRef, cancelling any active grant. Blocking
// an already blocked app is a no-op.
func (c *Controller) Block(appRef string) {
	c.mu.Lock()
	g, ok := c.grants[appRef]
	if ok {
		g.stopTimers()
		delete(c.grants, appRef)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	if err := c.store.DeleteSession(g.sessionID); err != nil {
		c.logger.Error("Failed to delete unlock session", slog.String("error", err.Error()))
	}
	c.logger.Info("App re-blocked", slog.String("app_ref", appRef), slog.String("session_id", g.sessionID))
	c.emit(Event{Type: EventBlocked, AppRef: appRef, SessionID: g.sessionID, At: c.now()})
}

// Remaining reports how long appRef stays unblocked. ok is false when the
// app is blocked.
func (c *Controller) Remaining(appRef string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.grants[appRef]
	if !ok {
		return 0, false
	}
	remaining := g.expiresAt.Sub(c.now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Unblocked returns the currently unblocked app refs, sorted.
func (c *Controller) Unblocked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	apps := make([]string, 0, len(c.grants))
	for appRef := range c.grants {
		apps = append(apps, appRef)
	}
	sort.Strings(apps)
	return apps
}

// Restore reloads persisted grants after a daemon restart. Grants that
// expired while the daemon was down are re-blocked immediately; live ones
// get their timers rescheduled for the remaining time.
func (c *Controller) Restore() error {
	recs, err := c.store.ListSessions()
	if err != nil {
		return err
	}

	now := c.now()
	for _, rec := range recs {
		if !rec.ExpiresAt.After(now) {
			if err := c.store.DeleteSession(rec.SessionID); err != nil {
				c.logger.Error("Failed to delete expired unlock session", slog.String("error", err.Error()))
			}
			c.logger.Info("Expired grant swept on restore", slog.String("app_ref", rec.AppRef))
			c.emit(Event{Type: EventBlocked, AppRef: rec.AppRef, SessionID: rec.SessionID, At: now})
			continue
		}

		c.mu.Lock()
		c.generation++
		g := &grant{
			sessionID:  rec.SessionID,
			appRef:     rec.AppRef,
			expiresAt:  rec.ExpiresAt,
			generation: c.generation,
		}
		c.grants[rec.AppRef] = g
		remaining := rec.ExpiresAt.Sub(now)
		c.scheduleLocked(g, remaining > 2*c.unit)
		c.mu.Unlock()

		c.logger.Info("Grant restored",
			slog.String("app_ref", rec.AppRef),
			slog.Duration("remaining", remaining),
		)
	}
	return nil
}

// Close stops all timers without emitting events. Persisted grants survive
// for the next Restore.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.grants {
		g.stopTimers()
	}
	c.grants = make(map[string]*grant)
}

// scheduleLocked arms the warning and expiry timers for g. Caller holds mu.
func (c *Controller) scheduleLocked(g *grant, withWarning bool) {
	now := c.now()
	gen := g.generation

	if withWarning {
		warnIn := g.expiresAt.Add(-2 * c.unit).Sub(now)
		if warnIn > 0 {
			g.warnTimer = time.AfterFunc(warnIn, func() {
				c.fireWarning(g.appRef, gen)
			})
		}
	}

	blockIn := g.expiresAt.Sub(now)
	if blockIn < 0 {
		blockIn = 0
	}
	g.blockTimer = time.AfterFunc(blockIn, func() {
		c.fireExpiry(g.appRef, gen)
	})
}

// fireWarning emits the two-units-left warning if the grant is still the one
// that armed the timer.
func (c *Controller) fireWarning(appRef string, gen uint64) {
	c.mu.Lock()
	g, ok := c.grants[appRef]
	if !ok || g.generation != gen {
		c.mu.Unlock()
		return
	}
	sessionID := g.sessionID
	remaining := g.expiresAt.Sub(c.now())
	c.mu.Unlock()

	c.emit(Event{Type: EventWarning, AppRef: appRef, SessionID: sessionID, Remaining: remaining, At: c.now()})
}

// fireExpiry re-blocks the app when its timer elapses. The generation check
// makes expiry at-most-once per grant: a replaced or manually blocked grant
// never fires.
func (c *Controller) fireExpiry(appRef string, gen uint64) {
	c.mu.Lock()
	g, ok := c.grants[appRef]
	if !ok || g.generation != gen {
		c.mu.Unlock()
		return
	}
	delete(c.grants, appRef)
	c.mu.Unlock()

	if err := c.store.DeleteSession(g.sessionID); err != nil {
		c.logger.Error("Failed to delete unlock session", slog.String("error", err.Error()))
	}
	c.logger.Info("Grant expired, app re-blocked",
		slog.String("app_ref", appRef),
		slog.String("session_id", g.sessionID),
	)
	c.emit(Event{Type: EventBlocked, AppRef: appRef, SessionID: g.sessionID, At: c.now()})
}

// emit delivers an event to every subscriber.
func (c *Controller) emit(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (g *grant) stopTimers() {
	if g.warnTimer != nil {
		g.warnTimer.Stop()
	}
	if g.blockTimer != nil {
		g.blockTimer.Stop()
	}
}
