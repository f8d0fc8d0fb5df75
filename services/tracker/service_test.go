package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"seasonwatch/models"
	"seasonwatch/services/metadata"
	"seasonwatch/utils/dateutil"
)

var today = time.Date(2016, 5, 12, 0, 0, 0, 0, time.UTC)

func iso(t time.Time) string { return dateutil.Format(t) }

// mockResolver serves canned metadata and records lookups.
type mockResolver struct {
	results  map[string]*metadata.ShowResult
	pingErr  error
	resolved []string
}

func (m *mockResolver) Resolve(_ context.Context, title string) (*metadata.ShowResult, error) {
	m.resolved = append(m.resolved, title)
	res, ok := m.results[title]
	if !ok {
		return nil, nil
	}
	return res, nil
}

func (m *mockResolver) Ping(context.Context) error { return m.pingErr }

func newFixture(t *testing.T, list string, resolver *mockResolver) (*Service, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/shows.txt", []byte(list), 0o644))
	return NewService(fs, "/cache", resolver), fs
}

func TestFingerprintTracksContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.txt", []byte("Show A\nShow B\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/b.txt", []byte("Show A\nShow B\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/c.txt", []byte("Show A\nShow C\n"), 0o644))

	fpA, err := Fingerprint(fs, "/a.txt")
	require.NoError(t, err)
	fpB, err := Fingerprint(fs, "/b.txt")
	require.NoError(t, err)
	fpC, err := Fingerprint(fs, "/c.txt")
	require.NoError(t, err)

	require.Equal(t, fpA, fpB, "identical content must share a fingerprint")
	require.NotEqual(t, fpA, fpC, "a single-character edit must change the fingerprint")
}

func TestFirstRunResolvesAndCaches(t *testing.T) {
	resolver := &mockResolver{results: map[string]*metadata.ShowResult{
		"Show A": {
			Name:     "Show A",
			Season:   2,
			Premiere: iso(today.AddDate(0, 0, -10)),
			End:      iso(today.AddDate(0, 0, 4)),
			Episodes: []models.EpisodeListing{
				{Season: 2, Number: 1, AirDate: iso(today.AddDate(0, 0, -10))},
				{Season: 2, Number: 2, AirDate: iso(today.AddDate(0, 0, -3))},
			},
			Status: "Running",
		},
	}}
	svc, fs := newFixture(t, "Show A\n", resolver)

	res, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today})
	require.NoError(t, err)
	require.True(t, res.Updated)
	require.Len(t, res.Shows, 1)

	got := res.Shows[0]
	require.Equal(t, models.StatusAiring, got.Eval.Status)
	require.True(t, got.Eval.EpisodeKnown)
	require.Equal(t, 2, got.Eval.Episode)

	fp, err := Fingerprint(fs, "/shows.txt")
	require.NoError(t, err)
	exists, err := afero.Exists(fs, "/cache/"+fp+".json")
	require.NoError(t, err)
	require.True(t, exists, "a completed update pass must write the cache entry")
}

func TestSecondRunUsesCacheWithoutNetwork(t *testing.T) {
	resolver := &mockResolver{results: map[string]*metadata.ShowResult{
		"Show A": {
			Name: "Show A", Season: 1,
			Premiere: iso(today.AddDate(0, 0, -7)),
			End:      iso(today.AddDate(0, 0, 14)),
			Episodes: []models.EpisodeListing{
				{Season: 1, Number: 1, AirDate: iso(today.AddDate(0, 0, -7))},
				{Season: 1, Number: 2, AirDate: iso(today)},
				{Season: 1, Number: 3, AirDate: iso(today.AddDate(0, 0, 14))},
			},
			Status: "Running",
		},
	}}
	svc, _ := newFixture(t, "Show A\n", resolver)

	_, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today})
	require.NoError(t, err)
	require.Len(t, resolver.resolved, 1)

	res, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today})
	require.NoError(t, err)
	require.Len(t, resolver.resolved, 1, "a cached pass must not touch the network")
	require.False(t, res.Updated)
	require.Equal(t, models.StatusNew, res.Shows[0].Eval.Status)
	require.Equal(t, 2, res.Shows[0].Eval.Episode)
}

func TestUnknownShowDoesNotAbortPass(t *testing.T) {
	resolver := &mockResolver{results: map[string]*metadata.ShowResult{
		"Known Show": {
			Name: "Known Show", Season: 1,
			Premiere: iso(today.AddDate(0, 0, 3)),
			End:      iso(today.AddDate(0, 0, 45)),
			Status:   "Running",
		},
	}}
	svc, _ := newFixture(t, "Unknown Show\nKnown Show\n", resolver)

	res, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today})
	require.NoError(t, err)
	require.Len(t, res.Shows, 2)

	// Sorted by title: Known Show first.
	require.Equal(t, models.StatusSoon, res.Shows[0].Eval.Status)
	require.Equal(t, models.StatusUnknown, res.Shows[1].Eval.Status)
}

func TestOfflineSkipsUpdatePhaseEntirely(t *testing.T) {
	resolver := &mockResolver{pingErr: errors.New("no route to host")}
	svc, fs := newFixture(t, "Show A\n", resolver)

	res, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today})
	require.NoError(t, err)
	require.True(t, res.Offline)
	require.Empty(t, resolver.resolved, "no per-show lookups after a failed pre-check")
	require.Equal(t, models.StatusUnknown, res.Shows[0].Eval.Status)

	fp, err := Fingerprint(fs, "/shows.txt")
	require.NoError(t, err)
	exists, err := afero.Exists(fs, "/cache/"+fp+".json")
	require.NoError(t, err)
	require.False(t, exists, "an offline first run must stay a first run")
}

func TestCorruptCacheRebuildsAsFirstRun(t *testing.T) {
	resolver := &mockResolver{results: map[string]*metadata.ShowResult{}}
	svc, fs := newFixture(t, "Show A\n", resolver)

	fp, err := Fingerprint(fs, "/shows.txt")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/cache/"+fp+".json", []byte("{not json"), 0o644))

	res, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today})
	require.NoError(t, err)
	require.Len(t, resolver.resolved, 1, "corrupt cache must force a metadata refresh")
	require.Equal(t, models.StatusUnknown, res.Shows[0].Eval.Status)
}

func TestPersistedRecordsAreDelayFree(t *testing.T) {
	premiere := today.AddDate(0, 0, -7)
	resolver := &mockResolver{results: map[string]*metadata.ShowResult{
		"Show A": {
			Name: "Show A", Season: 1,
			Premiere: iso(premiere),
			End:      iso(today),
			Episodes: []models.EpisodeListing{
				{Season: 1, Number: 1, AirDate: iso(premiere)},
				{Season: 1, Number: 2, AirDate: iso(today)},
			},
			Status: "Running",
		},
	}}
	svc, fs := newFixture(t, "Show A\n", resolver)

	_, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today, Delay: true})
	require.NoError(t, err)

	fp, err := Fingerprint(fs, "/shows.txt")
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, "/cache/"+fp+".json")
	require.NoError(t, err)

	var records []models.CacheRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	require.Equal(t, iso(premiere), records[0].Premiere, "stored dates must have the delay removed")
	require.Equal(t, iso(today), records[0].Episodes["2"])
}

func TestUpdateFactsIsPureAndHandlesNotFound(t *testing.T) {
	old := models.Show{Title: "Show A", Season: 1, Premiere: today}

	require.Equal(t, old, UpdateFacts(old, nil, false), "not-found must leave facts untouched")

	res := &metadata.ShowResult{
		Name: "Show A", Season: 2,
		Premiere: "2016-04-01",
		End:      "2016-05-20",
		Episodes: []models.EpisodeListing{
			{Season: 2, Number: 1, AirDate: "2016-04-01"},
			{Season: 2, Number: 2, AirDate: ""},
		},
		Status: "To Be Determined",
	}
	updated := UpdateFacts(old, res, false)
	require.Equal(t, 1, old.Season, "input facts must not be mutated")
	require.Equal(t, 2, updated.Season)
	require.Equal(t, "To Be Determined", updated.MetaStatus)

	// The blank air date took the season end as placeholder, and the season
	// end is the highest-numbered episode's date.
	end, _ := dateutil.Parse("2016-05-20")
	require.Equal(t, end, updated.Episodes[2])
	require.Equal(t, end, updated.End)
}

func TestDelayShiftsHydratedDates(t *testing.T) {
	resolver := &mockResolver{results: map[string]*metadata.ShowResult{
		"Show A": {
			Name: "Show A", Season: 1,
			Premiere: "2016-05-05",
			End:      "2016-06-02",
			Status:   "Running",
		},
	}}
	svc, _ := newFixture(t, "Show A\n", resolver)

	res, err := svc.Run(context.Background(), RunOptions{ListPath: "/shows.txt", Today: today, Delay: true})
	require.NoError(t, err)
	require.Equal(t, "2016-05-06", iso(res.Shows[0].Show.Premiere))
}
