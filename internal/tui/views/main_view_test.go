package views

import (
	"testing"

	"tiersort/internal/media"
	"tiersort/internal/session"
	"tiersort/internal/tui/common"

	"github.com/stretchr/testify/assert"
)

type stubReader struct {
	phase    common.Phase
	frame    string
	item     media.WorkItem
	current  bool
	stats    session.Stats
	tiers    []string
	status   string
	isErr    bool
	showHelp bool
}

func (s stubReader) Phase() common.Phase          { return s.phase }
func (s stubReader) Frame() string                { return s.frame }
func (s stubReader) Item() (media.WorkItem, bool) { return s.item, s.current }
func (s stubReader) Stats() session.Stats         { return s.stats }
func (s stubReader) Tiers() []string              { return s.tiers }
func (s stubReader) Status() (string, bool)       { return s.status, s.isErr }
func (s stubReader) ShowHelp() bool               { return s.showHelp }
func (s stubReader) Width() int                   { return 80 }

func TestRenderSorting(t *testing.T) {
	out := RenderMainView(stubReader{
		phase:   common.Sorting,
		frame:   "FRAME",
		item:    media.WorkItem{Name: "cat.jpg"},
		current: true,
		stats:   session.Stats{Total: 3, Relocated: 1, Remaining: 1, Current: true},
		tiers:   []string{"Keep", "Trash"},
		status:  "moved dog.jpg",
	})
	assert.Contains(t, out, "cat.jpg")
	assert.Contains(t, out, "2 of 3, 1 left")
	assert.Contains(t, out, "FRAME")
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "Keep")
	assert.Contains(t, out, "[2]")
	assert.Contains(t, out, "moved dog.jpg")
	assert.NotContains(t, out, "Press the number")
}

func TestRenderSummary(t *testing.T) {
	out := RenderMainView(stubReader{
		phase: common.Finished,
		stats: session.Stats{Total: 4, Relocated: 2, Skipped: 1, Failed: 1},
	})
	assert.Contains(t, out, "2 moved, 1 skipped, 1 failed")

	out = RenderMainView(stubReader{phase: common.Finished, showHelp: true})
	assert.Contains(t, out, "No items found")
	assert.Contains(t, out, "Press the number")
}

func TestRenderTierBarLimitsKeys(t *testing.T) {
	tiers := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	out := RenderTierBar(tiers)
	assert.Contains(t, out, "[9]")
	assert.NotContains(t, out, "[10]")
	assert.Contains(t, out, "j")
}
