// Package media holds the items a sorting session works through: what kind
// of media a file is, which files in a folder qualify, and the shuffled
// queue they are handed out from.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tiersort/internal/errors"

	"github.com/gobwas/glob"
)

// Kind is the media kind of a work item.
type Kind int

const (
	Image Kind = iota
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Mode selects which kind a session sorts.
type Mode int

const (
	Pictures Mode = iota
	Videos
)

func (m Mode) String() string {
	if m == Videos {
		return "videos"
	}
	return "pictures"
}

// Kind returns the media kind a mode enumerates.
func (m Mode) Kind() Kind {
	if m == Videos {
		return Video
	}
	return Image
}

// ParseMode accepts "pictures"/"images" and "videos", any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pictures", "picture", "images", "image":
		return Pictures, nil
	case "videos", "video":
		return Videos, nil
	}
	return Pictures, errors.NewConfigError(fmt.Sprintf("unknown mode %q", s), "mode", errors.InvalidConfig, nil)
}

// WorkItem is one file pending a sorting decision. Name is relative to the
// session's source folder.
type WorkItem struct {
	Name string
	Kind Kind
}

func (w WorkItem) String() string {
	return w.Name
}

// Matcher decides whether a file name has one of a set of extensions.
type Matcher struct {
	exts []string
	g    glob.Glob
}

// NewMatcher compiles an extension allow-list. Extensions may be given with
// or without the leading dot and match case-insensitively.
func NewMatcher(exts []string) (*Matcher, error) {
	clean := make([]string, 0, len(exts))
	seen := make(map[string]bool)
	for _, ext := range exts {
		e := strings.ToLower(strings.Trim(strings.TrimSpace(ext), "."))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		clean = append(clean, e)
	}
	if len(clean) == 0 {
		return nil, errors.NewConfigError("no extensions to match", "extensions", errors.InvalidConfig, nil)
	}

	pattern := "*.{" + strings.Join(clean, ",") + "}"
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewConfigError("invalid extension list", "extensions", errors.InvalidConfig, err)
	}
	return &Matcher{exts: clean, g: g}, nil
}

// Match reports whether name carries one of the allowed extensions.
func (m *Matcher) Match(name string) bool {
	return m.g.Match(strings.ToLower(name))
}

// Extensions returns the normalized extension list.
func (m *Matcher) Extensions() []string {
	out := make([]string, len(m.exts))
	copy(out, m.exts)
	return out
}

// Enumerate lists the regular files directly inside dir that the matcher
// accepts, sorted by name. Subdirectories are never descended into.
func Enumerate(dir string, m *Matcher, kind Kind) ([]WorkItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewFileError("cannot list folder", dir, errors.FileOperationFailed, err)
	}

	var items []WorkItem
	for _, entry := range entries {
		if !m.Match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		items = append(items, WorkItem{Name: entry.Name(), Kind: kind})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// ParseTiers splits a comma separated tier list, trimming blanks and
// dropping empty and repeated names.
func ParseTiers(s string) []string {
	return CleanTiers(strings.Split(s, ","))
}

// CleanTiers trims names and drops empties and repeats, keeping the first
// occurrence order.
func CleanTiers(names []string) []string {
	var tiers []string
	seen := make(map[string]bool)
	for _, name := range names {
		t := strings.TrimSpace(name)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tiers = append(tiers, t)
	}
	return tiers
}

// ValidTierName rejects names that would escape the source folder.
func ValidTierName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
