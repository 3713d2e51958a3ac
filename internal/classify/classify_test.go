package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oculusre/signalharvest/internal/signal"
)

func lookupWith(slugs ...string) FeedLookup {
	table := map[string]string{}
	for _, s := range slugs {
		table[s] = "https://feeds.example.com/" + s
	}
	return func(slug string) (string, bool) {
		url, ok := table[slug]
		return url, ok
	}
}

func TestPartitionAssignsEachLane(t *testing.T) {
	t.Parallel()

	sources := []signal.Source{
		{ID: 1, Slug: "cre-weekly", Kind: signal.SourceKindFeed},
		{ID: 2, Slug: "dealmakers-pod", Kind: signal.SourceKindPodcast},
		{ID: 3, Slug: "metro-biz", Kind: signal.SourceKindWebsite, RequiresAuth: true},
		{ID: 4, Slug: "chamber", Kind: signal.SourceKindWebsite},
		{ID: 5, Slug: "city-news", Kind: signal.SourceKindWebsite},
	}

	lanes := Partition(sources, lookupWith("city-news"))

	require.Len(t, lanes.FeedDirect, 2)
	require.Len(t, lanes.WebsiteAuthBrowser, 1)
	require.Equal(t, "metro-biz", lanes.WebsiteAuthBrowser[0].Slug)
	require.Len(t, lanes.WebsiteWithFeed, 1)
	require.Equal(t, "city-news", lanes.WebsiteWithFeed[0].Slug)
	require.Len(t, lanes.WebsiteNoFeedBrowser, 1)
	require.Equal(t, "chamber", lanes.WebsiteNoFeedBrowser[0].Slug)
	require.Empty(t, lanes.Excluded)
	require.Empty(t, lanes.Unclassified)
}

func TestPartitionExclusionWinsOverEverything(t *testing.T) {
	t.Parallel()

	sources := []signal.Source{
		{ID: 1, Slug: "cre-weekly", Kind: signal.SourceKindFeed, ExcludedFromScheduledRun: true},
		{ID: 2, Slug: "metro-biz", Kind: signal.SourceKindWebsite, RequiresAuth: true, ExcludedFromScheduledRun: true},
	}

	lanes := Partition(sources, nil)

	require.Len(t, lanes.Excluded, 2)
	require.Empty(t, lanes.FeedDirect)
	require.Empty(t, lanes.WebsiteAuthBrowser)
}

func TestPartitionReportsUnrecognizedKind(t *testing.T) {
	t.Parallel()

	sources := []signal.Source{
		{ID: 1, Slug: "mystery", Kind: signal.SourceKind("newsletter")},
	}

	lanes := Partition(sources, nil)

	require.Len(t, lanes.Unclassified, 1)
	require.Equal(t, "mystery", lanes.Unclassified[0].Slug)
}

func TestPartitionIsDisjointAndComplete(t *testing.T) {
	t.Parallel()

	sources := []signal.Source{
		{ID: 1, Slug: "a", Kind: signal.SourceKindFeed},
		{ID: 2, Slug: "b", Kind: signal.SourceKindPodcast},
		{ID: 3, Slug: "c", Kind: signal.SourceKindWebsite},
		{ID: 4, Slug: "d", Kind: signal.SourceKindWebsite, RequiresAuth: true},
		{ID: 5, Slug: "e", Kind: signal.SourceKindWebsite, ExcludedFromScheduledRun: true},
		{ID: 6, Slug: "f", Kind: signal.SourceKind("bogus")},
		{ID: 7, Slug: "g", Kind: signal.SourceKindWebsite, Config: signal.SourceConfig{FeedURL: "https://g.example.com/rss"}},
	}

	lanes := Partition(sources, nil)

	seen := map[int64]int{}
	for _, lane := range [][]signal.Source{
		lanes.FeedDirect,
		lanes.WebsiteWithFeed,
		lanes.WebsiteAuthBrowser,
		lanes.WebsiteNoFeedBrowser,
		lanes.Excluded,
		lanes.Unclassified,
	} {
		for _, src := range lane {
			seen[src.ID]++
		}
	}

	require.Len(t, seen, len(sources))
	for id, count := range seen {
		require.Equal(t, 1, count, "source %d appears in more than one lane", id)
	}
	require.Equal(t, "g", lanes.WebsiteWithFeed[0].Slug)
}
