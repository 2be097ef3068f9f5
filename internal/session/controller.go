// Package session drives one sorting run: it shows each pending item, waits
// for a tier decision, moves the item into its tier folder and moves on
// until the shuffled queue is empty.
//
// All state transitions happen on the controller's event loop. Front ends
// call SelectTier and Close from any goroutine; playback completion and
// source folder changes arrive as events on the same loop, so the ordering
// stop, release, relocate, open next holds regardless of UI framework.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tiersort/internal/config"
	"tiersort/internal/decode"
	"tiersort/internal/display"
	"tiersort/internal/errors"
	"tiersort/internal/log"
	"tiersort/internal/media"
	"tiersort/internal/organize"
	"tiersort/internal/playback"
	"tiersort/internal/watch"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Request is what the user chose on the setup screen.
type Request struct {
	Source string
	Tiers  []string
	Mode   media.Mode
}

// Deps are the collaborators a controller drives. Images, Videos and
// Surface are required; the rest have defaults.
type Deps struct {
	Images    decode.ImageDecoder
	Videos    decode.VideoDecoder
	Surface   display.Surface
	Notifier  Notifier
	Relocator organize.Relocator
	Rand      *rand.Rand
}

type (
	tierSelected struct{ tier string }
	haltDone     struct {
		p     presentation
		stall error
	}
	itemVanished struct{ name string }
	closeRequest struct{}
)

// Controller runs a single session. It is not reusable once the session
// has completed or been closed.
type Controller struct {
	cfg  *config.Config
	deps Deps

	id     string
	req    Request
	logger *log.Logger

	queue     *media.Queue
	relocator organize.Relocator
	pump      *display.Pump
	watcher   *watch.Watcher
	lock      *flock.Flock
	cancel    context.CancelFunc

	events  chan interface{}
	quit    chan struct{}
	endOnce sync.Once
	loopEnd chan struct{}

	// Owned by the event loop.
	pres    presentation
	pending string

	mu      sync.RWMutex
	state   State
	current *media.WorkItem
	stats   Stats
	started bool

	completeOnce sync.Once
}

// New creates a controller. Start begins the session.
func New(cfg *config.Config, deps Deps) *Controller {
	if cfg == nil {
		cfg = config.New()
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	return &Controller{
		cfg:     cfg,
		deps:    deps,
		id:      uuid.NewString(),
		events:  make(chan interface{}, 16),
		quit:    make(chan struct{}),
		loopEnd: make(chan struct{}),
		logger:  log.LogWithFields(),
	}
}

// ID identifies the session in logs.
func (c *Controller) ID() string { return c.id }

// Start validates req, prepares the tier folders and shows the first item.
// Configuration problems are returned and the session does not begin. With
// nothing to sort the session completes before Start returns.
func (c *Controller) Start(ctx context.Context, req Request) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("session already started")
	}
	c.started = true
	c.mu.Unlock()

	if err := c.begin(req); err != nil {
		c.unlock()
		c.end()
		close(c.loopEnd)
		return err
	}

	c.logger = log.LogWithFields(log.F("session", c.id))
	c.logger.With(
		log.F("source", req.Source),
		log.F("mode", req.Mode.String()),
		log.F("tiers", c.req.Tiers),
		log.F("items", c.stats.Total),
	).Info("Session started")

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.pump = display.NewPump(c.deps.Surface, c.cfg.Playback.PumpInterval.D())
	go c.pump.Run(loopCtx)

	c.advance()
	if c.State().Done() {
		close(c.loopEnd)
		return nil
	}

	if c.cfg.Session.WatchSource {
		c.startWatcher()
	}
	go c.loop(loopCtx)
	return nil
}

// begin checks the request and builds the pending queue.
func (c *Controller) begin(req Request) error {
	if c.deps.Images == nil || c.deps.Videos == nil || c.deps.Surface == nil {
		return errors.NewConfigError("decoders and surface are required", "deps", errors.InvalidConfig, nil)
	}

	req.Tiers = media.CleanTiers(req.Tiers)
	if len(req.Tiers) == 0 {
		return errors.ErrNoTiers
	}
	for _, tier := range req.Tiers {
		if !media.ValidTierName(tier) {
			return errors.NewConfigError(fmt.Sprintf("invalid tier name %q", tier), "tiers", errors.InvalidConfig, nil)
		}
	}
	info, err := os.Stat(req.Source)
	if err != nil {
		return errors.NewConfigError("source folder is not accessible", "source", errors.InvalidConfig, err)
	}
	if !info.IsDir() {
		return errors.NewConfigError("source is not a folder", "source", errors.InvalidConfig, nil)
	}
	c.req = req

	matcher, err := MatcherFor(c.cfg, req.Mode)
	if err != nil {
		return err
	}

	if c.cfg.Session.Lock {
		fl, err := lockSource(req.Source)
		if err != nil {
			return err
		}
		c.lock = fl
	}

	c.relocator = c.deps.Relocator
	if c.relocator == nil {
		c.relocator = organize.CurrentRelocatorFactory(req.Source)
		c.relocator.SetConfig(c.cfg.Relocation)
	}
	if err := c.relocator.PrepareTiers(req.Tiers); err != nil {
		return err
	}

	items, err := media.Enumerate(req.Source, matcher, req.Mode.Kind())
	if err != nil {
		return errors.NewConfigError("cannot list source folder", "source", errors.InvalidConfig, err)
	}

	rng := c.deps.Rand
	if rng == nil {
		seed := c.cfg.Sorting.ShuffleSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	c.mu.Lock()
	c.queue = media.NewQueue(items, rng)
	c.stats.Total = len(items)
	c.mu.Unlock()
	return nil
}

// SelectTier records the decision for the current item. It does not wait
// for the move.
func (c *Controller) SelectTier(tier string) error {
	known := false
	for _, t := range c.req.Tiers {
		if t == tier {
			known = true
			break
		}
	}
	if !known {
		return errors.NewConfigError(fmt.Sprintf("unknown tier %q", tier), "tier", errors.InvalidConfig, nil)
	}
	if !c.post(tierSelected{tier: tier}) {
		return errors.New("session is not running")
	}
	return nil
}

// Close ends the session early. Playback is stopped and released and
// nothing more is moved. It waits for the event loop to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.started {
		c.started = true
		c.state = Closed
		c.mu.Unlock()
		c.end()
		close(c.loopEnd)
		return
	}
	c.mu.Unlock()
	c.post(closeRequest{})
	<-c.loopEnd
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Current returns the item on screen.
func (c *Controller) Current() (media.WorkItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return media.WorkItem{}, false
	}
	return *c.current, true
}

// Stats returns the item counts so far.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsLocked()
}

// Tiers are the session's tier names in display order.
func (c *Controller) Tiers() []string {
	out := make([]string, len(c.req.Tiers))
	copy(out, c.req.Tiers)
	return out
}

// Done is closed once the session has completed or been closed.
func (c *Controller) Done() <-chan struct{} { return c.quit }

func (c *Controller) statsLocked() Stats {
	s := c.stats
	if c.queue != nil {
		s.Remaining = c.queue.Len()
	}
	s.Current = c.current != nil
	return s
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// post hands ev to the event loop. It reports false once the session has
// ended.
func (c *Controller) post(ev interface{}) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.quit:
		return false
	}
}

func (c *Controller) end() {
	c.endOnce.Do(func() { close(c.quit) })
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.loopEnd)
	for {
		select {
		case <-ctx.Done():
			c.shutdown(Closed)
			return
		case ev := <-c.events:
			c.handle(ev)
			if c.State().Done() {
				return
			}
		}
	}
}

func (c *Controller) handle(ev interface{}) {
	switch ev := ev.(type) {
	case tierSelected:
		c.onTierSelected(ev.tier)
	case haltDone:
		c.onHaltDone(ev)
	case itemVanished:
		c.onItemVanished(ev.name)
	case closeRequest:
		c.logger.With(log.F("stats", c.Stats())).Info("Session closed")
		c.shutdown(Closed)
	}
}

func (c *Controller) onTierSelected(tier string) {
	if c.State() != Displaying || c.pres == nil {
		c.logger.With(log.F("tier", tier), log.F("state", c.State().String())).Debug("Ignoring tier selection")
		return
	}
	c.pending = tier
	c.setState(DecisionPending)

	p := c.pres
	c.pump.SetSource(nil)
	halted := p.halt()
	select {
	case <-halted:
		// Nothing left open
		c.onHaltDone(haltDone{p: p})
		return
	default:
	}

	c.setState(StoppingPlayback)
	timeout := c.cfg.Playback.StopTimeout.D()
	go func() {
		c.post(haltDone{p: p, stall: p.wait(timeout)})
	}()
}

func (c *Controller) onHaltDone(ev haltDone) {
	if ev.p != c.pres {
		return
	}
	item, ok := c.Current()
	if !ok {
		return
	}
	c.pres = nil

	if ev.stall != nil {
		c.logger.WithError(ev.stall).Warn("Playback did not stop in time, forcing release")
		c.deps.Notifier.OnWarning(ev.stall)
		if !ev.p.forceRelease() {
			// Still open: leave the file where it is.
			c.recordFailure(errors.NewRelocationError(item.Name, c.pending, ev.stall))
			c.advance()
			return
		}
	} else {
		ev.p.release()
	}

	c.setState(Relocating)
	c.relocate(item, c.pending)
	c.advance()
}

func (c *Controller) relocate(item media.WorkItem, tier string) {
	logger := c.logger.With(log.F("item", item.Name), log.F("tier", tier))
	if err := c.relocator.Relocate(item, tier); err != nil {
		c.recordFailure(err)
		return
	}
	c.mu.Lock()
	c.stats.Relocated++
	c.current = nil
	c.mu.Unlock()
	logger.Info("Item sorted")
}

func (c *Controller) recordFailure(err error) {
	c.logger.WithError(err).Warn("Item left in place")
	c.mu.Lock()
	c.stats.Failed++
	c.current = nil
	c.mu.Unlock()
	c.deps.Notifier.OnRelocationFailed(err)
}

func (c *Controller) onItemVanished(name string) {
	item, ok := c.Current()
	if !ok || item.Name != name || c.State() != Displaying {
		return
	}
	path := filepath.Join(c.req.Source, name)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return
	}

	c.pump.SetSource(nil)
	c.stopPresentation()
	c.skip(item, errors.NewFileError("item was removed from the source folder", path, errors.FileNotFound, nil))
	c.advance()
}

// advance shows the next pending item, skipping any that fail to load, or
// completes the session when none are left.
func (c *Controller) advance() {
	for {
		c.mu.Lock()
		item, ok := c.queue.Pop()
		if !ok {
			c.current = nil
			c.mu.Unlock()
			c.complete()
			return
		}
		c.current = &item
		c.state = Displaying
		c.mu.Unlock()

		if err := c.show(item); err != nil {
			c.skip(item, err)
			continue
		}

		c.logger.With(log.F("item", item.Name), log.F("kind", item.Kind.String())).Debug("Showing item")
		c.deps.Notifier.OnItemShown(item, c.Stats())
		return
	}
}

// show loads item and points the pump at it. Any previous playback is
// released first.
func (c *Controller) show(item media.WorkItem) error {
	c.stopPresentation()

	path := filepath.Join(c.req.Source, item.Name)
	maxW, maxH := c.cfg.Display.MaxWidth, c.cfg.Display.MaxHeight

	var p presentation
	switch item.Kind {
	case media.Video:
		src, err := c.deps.Videos.Open(path)
		if err != nil {
			return err
		}
		h := playback.Start(item, src, playback.Options{
			BufferSize:   c.cfg.Playback.BufferSize,
			ReadInterval: c.cfg.Playback.ReadInterval.D(),
			MaxWidth:     maxW,
			MaxHeight:    maxH,
		})
		p = &video{h: h}
	default:
		img, err := c.deps.Images.Decode(path)
		if err != nil {
			return err
		}
		p = &still{slot: display.NewSlot(decode.ResizeToFit(img, maxW, maxH))}
	}

	c.pres = p
	c.pump.SetSource(p.source())
	return nil
}

// stopPresentation halts the current presentation and waits for its file to
// be released, bounded by the stop timeout.
func (c *Controller) stopPresentation() {
	p := c.pres
	if p == nil {
		return
	}
	c.pres = nil

	p.halt()
	if err := p.wait(c.cfg.Playback.StopTimeout.D()); err != nil {
		c.logger.WithError(err).Warn("Playback did not stop in time, forcing release")
		c.deps.Notifier.OnWarning(err)
		p.forceRelease()
		return
	}
	p.release()
}

func (c *Controller) skip(item media.WorkItem, cause error) {
	err := errors.NewItemLoadError(item.Name, cause)
	c.logger.WithError(err).Warn("Skipping item")
	c.mu.Lock()
	c.stats.Skipped++
	c.current = nil
	c.mu.Unlock()
	c.deps.Notifier.OnItemLoadFailed(err)
}

func (c *Controller) complete() {
	c.shutdown(Complete)
	c.completeOnce.Do(func() {
		stats := c.Stats()
		c.logger.With(
			log.F("relocated", stats.Relocated),
			log.F("skipped", stats.Skipped),
			log.F("failed", stats.Failed),
			log.F("moved", c.relocator.Moved()),
			log.F("dry_run", c.relocator.IsDryRun()),
		).Info("Session complete")
		c.deps.Notifier.OnSessionComplete(stats)
	})
}

// shutdown releases everything the session holds and enters the terminal
// state.
func (c *Controller) shutdown(final State) {
	if c.pump != nil {
		c.pump.SetSource(nil)
	}
	c.stopPresentation()
	if c.watcher != nil {
		c.watcher.Stop()
		c.watcher = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.pump != nil {
		c.stopPump()
	}
	c.unlock()

	c.mu.Lock()
	if c.state != Complete {
		c.state = final
	}
	c.mu.Unlock()
	c.end()
}

// stopPump waits for the display pump to exit, bounded by the stop timeout.
func (c *Controller) stopPump() {
	t := time.NewTimer(c.cfg.Playback.StopTimeout.D())
	defer t.Stop()
	select {
	case <-c.pump.Done():
		c.logger.With(log.F("shown", c.pump.Shown())).Debug("Display stopped")
	case <-t.C:
		c.logger.Warn("Display pump did not stop in time")
	}
}

func (c *Controller) unlock() {
	if c.lock == nil {
		return
	}
	if err := c.lock.Unlock(); err != nil {
		c.logger.WithError(err).Warn("Failed to release folder lock")
	}
	c.lock = nil
}

func (c *Controller) startWatcher() {
	w, err := watch.New()
	if err != nil {
		c.logger.WithError(err).Warn("Source folder watch disabled")
		return
	}
	if err := w.AddDirectory(c.req.Source); err != nil {
		c.logger.WithError(err).Warn("Source folder watch disabled")
		w.Stop()
		return
	}
	if err := w.Start(); err != nil {
		c.logger.WithError(err).Warn("Source folder watch disabled")
		return
	}
	c.watcher = w

	go func(events <-chan watch.FileModification) {
		for mod := range events {
			if mod.Gone() {
				c.post(itemVanished{name: mod.Name})
			}
		}
	}(w.FileChannel())
}
