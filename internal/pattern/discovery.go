package pattern

import (
	"context"
	"time"

	"github.com/aaronsb/playtimed/internal/domain"
)

// defaultCategory mirrors the original's discover_browser_domain /
// _find_gaming_processes defaults: a Proton-sourced key defaults to gaming,
// a browser-sourced key defaults to social, everything else to gaming.
func defaultCategory(activity domain.DetectedActivity) domain.Category {
	switch activity.Source {
	case "chrome", "firefox":
		return domain.CategorySocial
	default:
		return domain.CategoryGaming
	}
}

func defaultPatternType(activity domain.DetectedActivity) domain.PatternType {
	switch activity.Source {
	case "chrome", "firefox":
		return domain.PatternTypeBrowserDomain
	default:
		return domain.PatternTypeProcess
	}
}

// RecordObservation updates a DiscoveryCandidate for an unclassified
// activity and promotes it to a discovered Pattern once it has accumulated
// min_samples within sample_window_sec, per the discovery threshold rule.
// runtimeDelta is the runtime credited to this sighting (the Daemon Loop
// passes its tick period), used only for provenance in the candidate row.
func RecordObservation(ctx context.Context, store domain.Store, owner string, activity domain.DetectedActivity, runtimeDelta int64, now time.Time, minSamples int, sampleWindowSec int) (domain.Pattern, bool, error) {
	ptype := defaultPatternType(activity)

	c, err := store.RecordCandidateSample(ctx, owner, ptype, activity.Key, runtimeDelta, now)
	if err != nil {
		return domain.Pattern{}, false, err
	}

	withinWindow := now.Sub(c.FirstSeen) <= time.Duration(sampleWindowSec)*time.Second
	if c.Samples < minSamples || !withinWindow {
		return domain.Pattern{}, false, nil
	}

	p, err := store.PromoteDiscovery(ctx, owner, ptype, activity.Key, defaultCategory(activity), activity.Key)
	if err != nil {
		return domain.Pattern{}, false, err
	}
	return p, true, nil
}
