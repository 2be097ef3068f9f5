package session

import (
	"strings"

	"tiersort/internal/config"
	"tiersort/internal/errors"
	"tiersort/internal/media"
)

// MatcherFor builds the extension matcher a session in mode uses.
func MatcherFor(cfg *config.Config, mode media.Mode) (*media.Matcher, error) {
	exts := cfg.Sorting.ImageExtensions
	if mode.Kind() == media.Video {
		exts = cfg.Sorting.VideoExtensions
	}
	return media.NewMatcher(exts)
}

// Scan lists the items a session in mode would sort in dir, without
// taking the lock or touching the folder.
func Scan(cfg *config.Config, dir string, mode media.Mode) ([]media.WorkItem, error) {
	m, err := MatcherFor(cfg, mode)
	if err != nil {
		return nil, err
	}
	return media.Enumerate(dir, m, mode.Kind())
}

// ParseRequest builds a request from user input: a folder path, a comma
// separated tier list and a mode name.
func ParseRequest(source, tiers, mode string) (Request, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Request{}, errors.NewConfigError("choose a folder to sort", "source", errors.InvalidConfig, nil)
	}
	m, err := media.ParseMode(mode)
	if err != nil {
		return Request{}, err
	}
	names := media.ParseTiers(tiers)
	if len(names) == 0 {
		return Request{}, errors.ErrNoTiers
	}
	return Request{Source: source, Tiers: names, Mode: m}, nil
}
