package session

import (
	"context"
	"fmt"
	"image"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tiersort/internal/config"
	"tiersort/internal/decode"
	"tiersort/internal/errors"
	"tiersort/internal/media"
	"tiersort/internal/organize"
	"tiersort/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 3 * time.Second

// --- fakes ---

type fakeSurface struct {
	mu    sync.Mutex
	shown int
	alive atomic.Bool
}

func newFakeSurface() *fakeSurface {
	s := &fakeSurface{}
	s.alive.Store(true)
	return s
}

func (s *fakeSurface) SetImage(image.Image) {
	s.mu.Lock()
	s.shown++
	s.mu.Unlock()
}

func (s *fakeSurface) Alive() bool { return s.alive.Load() }

type recorder struct {
	shown       chan media.WorkItem
	loadFailed  chan error
	relocFailed chan error
	warnings    chan error
	completed   chan Stats
	completes   atomic.Int32
	invariantOK atomic.Bool
}

func newRecorder() *recorder {
	r := &recorder{
		shown:       make(chan media.WorkItem, 64),
		loadFailed:  make(chan error, 64),
		relocFailed: make(chan error, 64),
		warnings:    make(chan error, 64),
		completed:   make(chan Stats, 4),
	}
	r.invariantOK.Store(true)
	return r
}

func (r *recorder) OnItemShown(item media.WorkItem, stats Stats) {
	if !stats.Current || stats.Decided()+stats.Remaining+1 != stats.Total {
		r.invariantOK.Store(false)
	}
	r.shown <- item
}
func (r *recorder) OnItemLoadFailed(err error)   { r.loadFailed <- err }
func (r *recorder) OnRelocationFailed(err error) { r.relocFailed <- err }
func (r *recorder) OnWarning(err error)          { r.warnings <- err }
func (r *recorder) OnSessionComplete(stats Stats) {
	r.completes.Add(1)
	r.completed <- stats
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		var zero T
		t.Fatalf("timed out waiting for %T", zero)
		return zero
	}
}

func none[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected %v", v)
	case <-time.After(20 * time.Millisecond):
	}
}

type fakeImages struct {
	fail map[string]bool
}

func (f *fakeImages) Decode(path string) (image.Image, error) {
	if f.fail[filepath.Base(path)] {
		return nil, fmt.Errorf("corrupt image")
	}
	return image.NewRGBA(image.Rect(0, 0, 128, 96)), nil
}

type fakeVideos struct {
	mu       sync.Mutex
	failOpen map[string]bool
	stall    map[string]chan struct{}
	clips    map[string]*fakeClip
	open     int
	maxOpen  int
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{
		failOpen: map[string]bool{},
		stall:    map[string]chan struct{}{},
		clips:    map[string]*fakeClip{},
	}
}

func (v *fakeVideos) Open(path string) (decode.VideoSource, error) {
	name := filepath.Base(path)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failOpen[name] {
		return nil, fmt.Errorf("no video stream")
	}
	clip := &fakeClip{videos: v, block: v.stall[name]}
	v.clips[name] = clip
	v.open++
	if v.open > v.maxOpen {
		v.maxOpen = v.open
	}
	return clip, nil
}

func (v *fakeVideos) isOpen(name string) bool {
	v.mu.Lock()
	clip := v.clips[name]
	v.mu.Unlock()
	if clip == nil {
		return false
	}
	clip.mu.Lock()
	defer clip.mu.Unlock()
	return !clip.closed
}

func (v *fakeVideos) maxConcurrent() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxOpen
}

type fakeClip struct {
	videos          *fakeVideos
	block           chan struct{}
	mu              sync.Mutex
	closed          bool
	reads           int
	readsAfterClose int
}

func (c *fakeClip) ReadFrame() (image.Image, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.readsAfterClose++
		return nil, os.ErrClosed
	}
	c.reads++
	if c.reads%5 == 0 {
		return nil, io.EOF
	}
	return image.NewRGBA(image.Rect(0, 0, 320, 240)), nil
}

func (c *fakeClip) Rewind() error { return nil }

func (c *fakeClip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.videos.mu.Lock()
		c.videos.open--
		c.videos.mu.Unlock()
	}
	return nil
}

// checkingRelocator records moves and whether the item was still open.
type checkingRelocator struct {
	organize.Relocator
	videos *fakeVideos

	mu         sync.Mutex
	calls      []string
	openAtMove []string
}

func (r *checkingRelocator) Relocate(item media.WorkItem, tier string) error {
	r.mu.Lock()
	r.calls = append(r.calls, item.Name+"->"+tier)
	if r.videos != nil && r.videos.isOpen(item.Name) {
		r.openAtMove = append(r.openAtMove, item.Name)
	}
	r.mu.Unlock()
	return r.Relocator.Relocate(item, tier)
}

// --- helpers ---

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type fixture struct {
	dir     string
	cfg     *config.Config
	rec     *recorder
	videos  *fakeVideos
	images  decode.ImageDecoder
	surface *fakeSurface
	reloc   *checkingRelocator
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		cfg:     config.NewTestConfig(),
		rec:     newRecorder(),
		videos:  newFakeVideos(),
		images:  &fakeImages{},
		surface: newFakeSurface(),
	}
	f.reloc = &checkingRelocator{Relocator: organize.New(dir), videos: f.videos}
	return f
}

func (f *fixture) controller() *Controller {
	return New(f.cfg, Deps{
		Images:    f.images,
		Videos:    f.videos,
		Surface:   f.surface,
		Notifier:  f.rec,
		Relocator: f.reloc,
		Rand:      rand.New(rand.NewSource(7)),
	})
}

func (f *fixture) start(t *testing.T, mode media.Mode, tiers ...string) *Controller {
	t.Helper()
	c := f.controller()
	require.NoError(t, c.Start(context.Background(), Request{Source: f.dir, Tiers: tiers, Mode: mode}))
	t.Cleanup(c.Close)
	return c
}

// --- tests ---

func TestSortTwoImages(t *testing.T) {
	f := newFixture(t)
	f.images = decode.NewImages()
	testutils.WritePNG(t, filepath.Join(f.dir, "a.jpg"), 32, 24)
	testutils.WritePNG(t, filepath.Join(f.dir, "b.jpg"), 32, 24)

	c := f.start(t, media.Pictures, "Good", "Bad")
	assert.DirExists(t, filepath.Join(f.dir, "Good"))
	assert.DirExists(t, filepath.Join(f.dir, "Bad"))

	first := next(t, f.rec.shown)
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, first, cur)
	assert.Equal(t, Displaying, c.State())
	require.NoError(t, c.SelectTier("Good"))

	second := next(t, f.rec.shown)
	assert.NotEqual(t, first.Name, second.Name)
	assert.True(t, exists(filepath.Join(f.dir, "Good", first.Name)))
	assert.False(t, exists(filepath.Join(f.dir, first.Name)))

	require.NoError(t, c.SelectTier("Bad"))
	stats := next(t, f.rec.completed)

	assert.True(t, exists(filepath.Join(f.dir, "Bad", second.Name)))
	assert.False(t, exists(filepath.Join(f.dir, second.Name)))
	assert.Equal(t, Stats{Total: 2, Relocated: 2}, stats)
	assert.Equal(t, Complete, c.State())
	assert.Equal(t, []string{first.Name + "->Good", second.Name + "->Bad"}, f.reloc.calls)

	select {
	case <-c.Done():
	case <-time.After(waitTimeout):
		t.Fatal("session did not end")
	}
	none(t, f.rec.completed)
	select {
	case <-c.pump.Done():
	default:
		t.Fatal("display pump still running after session end")
	}
	assert.Equal(t, 2, f.reloc.Moved())
	assert.False(t, f.reloc.IsDryRun())
	assert.Equal(t, int32(1), f.rec.completes.Load())
	assert.True(t, f.rec.invariantOK.Load())
	assert.Error(t, c.SelectTier("Good"), "No selections after completion")
}

func TestImageShownOnSurface(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "a.jpg")
	f.start(t, media.Pictures, "Good")
	next(t, f.rec.shown)

	assert.Eventually(t, func() bool {
		f.surface.mu.Lock()
		defer f.surface.mu.Unlock()
		return f.surface.shown == 1
	}, waitTimeout, time.Millisecond)
}

func TestNoItemsCompletesImmediately(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "notes.txt", "clip.mp4")

	c := f.controller()
	require.NoError(t, c.Start(context.Background(), Request{Source: f.dir, Tiers: []string{"Good"}, Mode: media.Pictures}))

	// Completion is reported before Start returns
	assert.Equal(t, int32(1), f.rec.completes.Load())
	assert.Equal(t, Complete, c.State())
	assert.Equal(t, Stats{}, next(t, f.rec.completed))
	none(t, f.rec.shown)
	assert.DirExists(t, filepath.Join(f.dir, "Good"))

	c.Close()
	assert.Equal(t, Complete, c.State())
	assert.Equal(t, int32(1), f.rec.completes.Load())
}

func TestStartConfigurationErrors(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(f.dir, "file.jpg")
	touch(t, f.dir, "file.jpg")

	tests := []struct {
		name  string
		req   Request
		param string
	}{
		{"no tiers", Request{Source: f.dir, Tiers: nil}, "tiers"},
		{"blank tiers", Request{Source: f.dir, Tiers: []string{" ", ""}}, "tiers"},
		{"tier escapes folder", Request{Source: f.dir, Tiers: []string{"../up"}}, "tiers"},
		{"missing folder", Request{Source: filepath.Join(f.dir, "missing"), Tiers: []string{"Good"}}, "source"},
		{"source is a file", Request{Source: file, Tiers: []string{"Good"}}, "source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := f.controller()
			err := c.Start(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidConfig(err))

			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.param, cfgErr.Param())
			assert.Equal(t, Idle, c.State())

			// Close must not hang after a failed start
			c.Close()
		})
	}
	assert.NoDirExists(t, filepath.Join(f.dir, "Good"))
}

func TestSelectTierValidation(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "a.jpg")
	c := f.start(t, media.Pictures, "Good", "Bad")
	next(t, f.rec.shown)

	err := c.SelectTier("Maybe")
	assert.True(t, errors.IsInvalidConfig(err))
	assert.Equal(t, []string{"Good", "Bad"}, c.Tiers())
	assert.Equal(t, Displaying, c.State())
}

func TestVideoReleasedBeforeRelocate(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "one.mp4", "two.mkv", "three.webm")

	c := f.start(t, media.Videos, "Keep", "Drop")
	for i := 0; i < 3; i++ {
		item := next(t, f.rec.shown)
		assert.Equal(t, media.Video, item.Kind)

		// Let the producer run for a while
		assert.Eventually(t, func() bool { return f.videos.isOpen(item.Name) }, waitTimeout, time.Millisecond)
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, c.SelectTier("Keep"))
	}
	next(t, f.rec.completed)

	assert.Empty(t, f.reloc.openAtMove, "Videos must be released before they are moved")
	assert.Len(t, f.reloc.calls, 3)
	assert.Equal(t, 1, f.videos.maxConcurrent(), "At most one playback at a time")
	for name, clip := range f.videos.clips {
		assert.True(t, exists(filepath.Join(f.dir, "Keep", name)))
		clip.mu.Lock()
		assert.Zero(t, clip.readsAfterClose, name)
		assert.Positive(t, clip.reads, name)
		clip.mu.Unlock()
	}
	assert.Equal(t, Stats{Total: 3, Relocated: 3}, c.Stats())
}

func TestUnopenableVideoSkipped(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "broken.mp4", "fine.mp4")
	f.videos.failOpen["broken.mp4"] = true

	c := f.start(t, media.Videos, "Good")
	item := next(t, f.rec.shown)
	assert.Equal(t, "fine.mp4", item.Name)
	require.NoError(t, c.SelectTier("Good"))

	stats := next(t, f.rec.completed)
	err := next(t, f.rec.loadFailed)
	assert.True(t, errors.IsItemLoadError(err))
	var loadErr *errors.ItemLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "broken.mp4", loadErr.Item())

	assert.Equal(t, Stats{Total: 2, Relocated: 1, Skipped: 1}, stats)
	assert.True(t, exists(filepath.Join(f.dir, "broken.mp4")))
}

func TestCountsAddUp(t *testing.T) {
	f := newFixture(t)
	names := []string{"1.jpg", "2.jpg", "3.png", "4.png", "5.gif", "6.bmp", "7.jpeg"}
	touch(t, f.dir, names...)
	f.images = &fakeImages{fail: map[string]bool{"2.jpg": true, "6.bmp": true}}
	// Collide one item so its move fails
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "A"), 0755))
	touch(t, filepath.Join(f.dir, "A"), "5.gif")
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "B"), 0755))
	touch(t, filepath.Join(f.dir, "B"), "5.gif")

	c := f.start(t, media.Pictures, "A", "B")
	tiers := []string{"A", "B"}
	for i := 0; i < 5; i++ {
		next(t, f.rec.shown)
		s := c.Stats()
		assert.Equal(t, s.Total, s.Decided()+s.Remaining+1)
		require.NoError(t, c.SelectTier(tiers[i%2]))
	}
	stats := next(t, f.rec.completed)

	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 4, stats.Relocated)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Remaining)
	assert.Equal(t, stats.Total, stats.Decided())
	assert.True(t, f.rec.invariantOK.Load())

	relErr := next(t, f.rec.relocFailed)
	assert.True(t, errors.IsRelocationError(relErr))
	assert.ErrorIs(t, relErr, os.ErrExist)
	assert.True(t, exists(filepath.Join(f.dir, "5.gif")), "Failed move leaves the item in place")
}

func TestStalledProducerIsForceReleased(t *testing.T) {
	f := newFixture(t)
	f.cfg.Playback.StopTimeout = config.Duration(30 * time.Millisecond)
	touch(t, f.dir, "stuck.mp4", "healthy.mp4")
	unblock := make(chan struct{})
	f.videos.stall["stuck.mp4"] = unblock
	defer close(unblock)

	c := f.start(t, media.Videos, "Good")

	for i := 0; i < 2; i++ {
		item := next(t, f.rec.shown)
		if item.Name == "healthy.mp4" {
			require.NoError(t, c.SelectTier("Good"))
			continue
		}

		// Give the producer time to enter the blocking read
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, c.SelectTier("Good"))

		warning := next(t, f.rec.warnings)
		assert.True(t, errors.IsProducerStall(warning))
		var stall *errors.ProducerStallError
		require.True(t, errors.As(warning, &stall))
		assert.Equal(t, "stuck.mp4", stall.Item())

		// The reader still held the file, so it stays in place
		relErr := next(t, f.rec.relocFailed)
		assert.True(t, errors.IsRelocationError(relErr))
		assert.True(t, errors.IsProducerStall(relErr))
	}

	stats := next(t, f.rec.completed)
	assert.Equal(t, Stats{Total: 2, Relocated: 1, Failed: 1}, stats)
	assert.True(t, exists(filepath.Join(f.dir, "stuck.mp4")))
	assert.True(t, exists(filepath.Join(f.dir, "Good", "healthy.mp4")))
}

func TestStalledClipReleasedOnceUnblocked(t *testing.T) {
	f := newFixture(t)
	f.cfg.Playback.StopTimeout = config.Duration(20 * time.Millisecond)
	touch(t, f.dir, "stuck.mp4")
	unblock := make(chan struct{})
	f.videos.stall["stuck.mp4"] = unblock

	c := f.start(t, media.Videos, "Good")
	next(t, f.rec.shown)
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.SelectTier("Good"))
	next(t, f.rec.completed)
	assert.True(t, f.videos.isOpen("stuck.mp4"))

	close(unblock)
	assert.Eventually(t, func() bool { return !f.videos.isOpen("stuck.mp4") }, waitTimeout, time.Millisecond)
}

func TestCloseWithStalledClipForcesRelease(t *testing.T) {
	f := newFixture(t)
	f.cfg.Playback.StopTimeout = config.Duration(20 * time.Millisecond)
	touch(t, f.dir, "stuck.mp4")
	unblock := make(chan struct{})
	f.videos.stall["stuck.mp4"] = unblock

	c := f.start(t, media.Videos, "Good")
	next(t, f.rec.shown)
	time.Sleep(10 * time.Millisecond)

	c.Close()
	assert.Equal(t, Closed, c.State())
	warning := next(t, f.rec.warnings)
	var stall *errors.ProducerStallError
	require.True(t, errors.As(warning, &stall))
	assert.Equal(t, "stuck.mp4", stall.Item())
	assert.Equal(t, 20*time.Millisecond, stall.Timeout())
	assert.True(t, exists(filepath.Join(f.dir, "stuck.mp4")))

	close(unblock)
	assert.Eventually(t, func() bool { return !f.videos.isOpen("stuck.mp4") }, waitTimeout, time.Millisecond)
}

func TestCloseStopsPlaybackWithoutMoving(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "a.mp4", "b.mp4")

	c := f.start(t, media.Videos, "Good")
	item := next(t, f.rec.shown)
	assert.Eventually(t, func() bool { return f.videos.isOpen(item.Name) }, waitTimeout, time.Millisecond)

	c.Close()
	assert.Equal(t, Closed, c.State())
	assert.False(t, f.videos.isOpen(item.Name))
	assert.True(t, exists(filepath.Join(f.dir, "a.mp4")))
	assert.True(t, exists(filepath.Join(f.dir, "b.mp4")))
	assert.Empty(t, f.reloc.calls)
	assert.Equal(t, int32(0), f.rec.completes.Load())

	s := c.Stats()
	assert.Equal(t, s.Total, s.Decided()+s.Remaining+1)
	assert.Error(t, c.SelectTier("Good"))

	// Idempotent
	c.Close()
}

func TestCloseOnContextCancel(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "a.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	c := f.controller()
	require.NoError(t, c.Start(ctx, Request{Source: f.dir, Tiers: []string{"Good"}, Mode: media.Videos}))
	item := next(t, f.rec.shown)

	cancel()
	select {
	case <-c.Done():
	case <-time.After(waitTimeout):
		t.Fatal("session ignored cancellation")
	}
	assert.Eventually(t, func() bool { return c.State() == Closed }, waitTimeout, time.Millisecond)
	assert.Eventually(t, func() bool { return !f.videos.isOpen(item.Name) }, waitTimeout, time.Millisecond)
}

func TestSessionLock(t *testing.T) {
	f := newFixture(t)
	f.cfg.Session.Lock = true
	touch(t, f.dir, "a.jpg")

	first := f.start(t, media.Pictures, "Good")
	next(t, f.rec.shown)

	second := f.controller()
	err := second.Start(context.Background(), Request{Source: f.dir, Tiers: []string{"Good"}, Mode: media.Pictures})
	require.Error(t, err)
	assert.True(t, errors.IsSessionLocked(err))
	assert.Equal(t, errors.SessionLocked, errors.KindOf(err))

	first.Close()
	third := f.controller()
	require.NoError(t, third.Start(context.Background(), Request{Source: f.dir, Tiers: []string{"Good"}, Mode: media.Pictures}))
	third.Close()
}

func TestRemovedItemIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.cfg.Session.WatchSource = true
	touch(t, f.dir, "a.jpg", "b.jpg")

	c := f.start(t, media.Pictures, "Good")
	first := next(t, f.rec.shown)

	require.NoError(t, os.Remove(filepath.Join(f.dir, first.Name)))
	err := next(t, f.rec.loadFailed)
	assert.True(t, errors.IsItemLoadError(err))
	assert.True(t, errors.IsFileNotFound(err))

	second := next(t, f.rec.shown)
	assert.NotEqual(t, first.Name, second.Name)
	require.NoError(t, c.SelectTier("Good"))

	stats := next(t, f.rec.completed)
	assert.Equal(t, Stats{Total: 2, Relocated: 1, Skipped: 1}, stats)
	assert.Empty(t, f.rec.relocFailed, "Sorting moves must not be reported as removals")
}

func TestDoubleSelectionMovesOnce(t *testing.T) {
	f := newFixture(t)
	touch(t, f.dir, "a.mp4", "b.mp4")

	c := f.start(t, media.Videos, "Good", "Bad")
	first := next(t, f.rec.shown)
	require.NoError(t, c.SelectTier("Good"))
	require.NoError(t, c.SelectTier("Bad"))

	second := next(t, f.rec.shown)
	assert.NotEqual(t, first.Name, second.Name)
	assert.True(t, exists(filepath.Join(f.dir, "Good", first.Name)))
	assert.False(t, exists(filepath.Join(f.dir, "Bad", first.Name)))
	assert.False(t, exists(filepath.Join(f.dir, "Good", second.Name)))

	f.reloc.mu.Lock()
	defer f.reloc.mu.Unlock()
	assert.Equal(t, first.Name+"->Good", f.reloc.calls[0])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopping_playback", StoppingPlayback.String())
	assert.Equal(t, "state(42)", State(42).String())
	assert.True(t, Closed.Done())
	assert.False(t, Relocating.Done())
}
