// Package classify partitions active sources into disjoint processing lanes.
package classify

import "github.com/oculusre/signalharvest/internal/signal"

// FeedLookup reports whether a feed URL is registered for a source slug.
type FeedLookup func(slug string) (string, bool)

// Lanes holds the disjoint partition of one run's sources. Excluded and
// Unclassified are reported for visibility only and are never processed.
type Lanes struct {
	FeedDirect           []signal.Source
	WebsiteWithFeed      []signal.Source
	WebsiteAuthBrowser   []signal.Source
	WebsiteNoFeedBrowser []signal.Source
	Excluded             []signal.Source
	Unclassified         []signal.Source
}

// Partition assigns each source to exactly one lane. It is a pure function:
// no source appears in more than one lane, and exclusion always wins over the
// capability flags.
func Partition(sources []signal.Source, feeds FeedLookup) Lanes {
	var lanes Lanes
	for _, src := range sources {
		switch {
		case src.ExcludedFromScheduledRun:
			lanes.Excluded = append(lanes.Excluded, src)
		case src.Kind == signal.SourceKindFeed || src.Kind == signal.SourceKindPodcast:
			lanes.FeedDirect = append(lanes.FeedDirect, src)
		case src.Kind == signal.SourceKindWebsite && src.RequiresAuth:
			lanes.WebsiteAuthBrowser = append(lanes.WebsiteAuthBrowser, src)
		case src.Kind == signal.SourceKindWebsite && hasFeed(src, feeds):
			lanes.WebsiteWithFeed = append(lanes.WebsiteWithFeed, src)
		case src.Kind == signal.SourceKindWebsite:
			lanes.WebsiteNoFeedBrowser = append(lanes.WebsiteNoFeedBrowser, src)
		default:
			lanes.Unclassified = append(lanes.Unclassified, src)
		}
	}
	return lanes
}

func hasFeed(src signal.Source, feeds FeedLookup) bool {
	if src.Config.FeedURL != "" {
		return true
	}
	if feeds == nil {
		return false
	}
	_, ok := feeds(src.Slug)
	return ok
}
