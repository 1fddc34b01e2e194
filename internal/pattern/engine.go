// Package pattern implements the classification engine: a cached set of
// compiled regexes matched against observed activity keys, plus the
// discovery-candidate promotion flow.
package pattern

import (
	"context"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

type compiled struct {
	pattern domain.Pattern
	re      *regexp.Regexp
}

// Engine holds a snapshot of active patterns compiled once per epoch. It is
// owned by the Daemon Loop and rebuilt whenever the Store's epoch advances.
type Engine struct {
	log      *zap.Logger
	epoch    int64
	byOwner  map[string][]compiled // user-specific active, priority-sorted
	global   []compiled            // global active, priority-sorted
}

func New(log *zap.Logger) *Engine {
	return &Engine{log: log, byOwner: map[string][]compiled{}}
}

// Epoch reports the epoch this snapshot was built at.
func (e *Engine) Epoch() int64 { return e.epoch }

// Reload recompiles the engine's pattern set from the Store. Patterns whose
// regex fails to compile are skipped and logged rather than aborting the
// reload — a single bad admin edit must not blind the whole engine.
func (e *Engine) Reload(ctx context.Context, store domain.Store, epoch int64) error {
	all, err := store.ListAllPatterns(ctx)
	if err != nil {
		return err
	}

	byOwner := map[string][]compiled{}
	var global []compiled
	for _, p := range all {
		if p.MonitorState != domain.MonitorActive {
			continue
		}
		re, err := regexp.Compile(p.PatternRegex)
		if err != nil {
			if e.log != nil {
				e.log.Warn("skipping pattern with invalid regex", zap.Int64("pattern_id", p.ID), zap.Error(err))
			}
			continue
		}
		c := compiled{pattern: p, re: re}
		if p.Owner == "" {
			global = append(global, c)
		} else {
			byOwner[p.Owner] = append(byOwner[p.Owner], c)
		}
	}

	sortByPriority := func(cs []compiled) {
		sort.SliceStable(cs, func(i, j int) bool {
			if cs[i].pattern.Priority != cs[j].pattern.Priority {
				return cs[i].pattern.Priority < cs[j].pattern.Priority
			}
			return cs[i].pattern.ID < cs[j].pattern.ID
		})
	}
	sortByPriority(global)
	for u := range byOwner {
		sortByPriority(byOwner[u])
	}

	e.byOwner = byOwner
	e.global = global
	e.epoch = epoch
	return nil
}

// Classify returns the first matching pattern for the given user and
// activity key, checking user-specific active patterns before global ones.
func (e *Engine) Classify(user string, activity domain.DetectedActivity) (domain.Pattern, domain.Category, bool) {
	for _, c := range e.byOwner[user] {
		if c.re.MatchString(activity.Key) {
			return c.pattern, c.pattern.Category, true
		}
	}
	for _, c := range e.global {
		if c.re.MatchString(activity.Key) {
			return c.pattern, c.pattern.Category, true
		}
	}
	return domain.Pattern{}, "", false
}
