// Package tracker runs the batch pass that keeps derived show facts fresh:
// fingerprint the list, load or rebuild the cache entry, refresh stale shows
// from the metadata source, recompute statuses and persist the result.
package tracker

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"sort"
	"time"

	"github.com/spf13/afero"

	"seasonwatch/models"
	"seasonwatch/services/metadata"
	"seasonwatch/services/status"
	"seasonwatch/utils/dateutil"
)

// MetadataResolver is the external collaborator that turns a title into
// schedule facts.
type MetadataResolver interface {
	Resolve(ctx context.Context, title string) (*metadata.ShowResult, error)
	Ping(ctx context.Context) error
}

// Service orchestrates one pass over a tracked show list.
type Service struct {
	fs       afero.Fs
	cacheDir string
	resolver MetadataResolver
}

func NewService(fsys afero.Fs, cacheDir string, resolver MetadataResolver) *Service {
	return &Service{fs: fsys, cacheDir: cacheDir, resolver: resolver}
}

// RunOptions carries the per-invocation inputs. Today and Delay are threaded
// explicitly through every computation; nothing here is process-wide state.
type RunOptions struct {
	ListPath string
	Today    time.Time
	Delay    bool
	Refresh  bool
}

// RunResult is the outcome of a pass.
type RunResult struct {
	Shows []models.TrackedShow
	// Updated reports whether the metadata update phase ran to completion
	// (and the cache was rewritten).
	Updated bool
	// Offline is set when the connectivity pre-check failed and the update
	// phase was skipped wholesale.
	Offline bool
}

// Run executes one batch pass. Shows come back sorted by title. A failure on
// one show's lookup degrades that show to unknown and the pass continues;
// only unreadable storage aborts the run.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	fingerprint, err := Fingerprint(s.fs, opts.ListPath)
	if err != nil {
		return nil, err
	}

	shows, firstRun, err := s.loadOrInit(fingerprint, opts.ListPath, opts.Delay)
	if err != nil {
		return nil, err
	}

	result := &RunResult{}
	if firstRun || opts.Refresh {
		if err := s.resolver.Ping(ctx); err != nil {
			// One notice per pass; cached facts are reused unmodified.
			log.Printf("[tracker] metadata source unreachable, skipping update phase: %v", err)
			result.Offline = true
		} else {
			for i := range shows {
				res, err := s.resolver.Resolve(ctx, shows[i].Title)
				if err != nil {
					log.Printf("[tracker] lookup failed for %q, keeping known facts: %v", shows[i].Title, err)
					continue
				}
				if res == nil {
					log.Printf("[tracker] no metadata found for %q", shows[i].Title)
					continue
				}
				shows[i] = UpdateFacts(shows[i], res, opts.Delay)
			}
			// The cache entry is rewritten wholesale only after a
			// completed update phase, so an offline first run stays
			// a first run next time.
			if err := s.persist(shows, fingerprint, opts.Delay); err != nil {
				return nil, err
			}
			result.Updated = true
		}
	}

	sort.Slice(shows, func(i, j int) bool { return shows[i].Title < shows[j].Title })

	today := dateutil.Today(opts.Today)
	result.Shows = make([]models.TrackedShow, 0, len(shows))
	for _, show := range shows {
		result.Shows = append(result.Shows, models.TrackedShow{
			Show: show,
			Eval: status.Compute(show, today),
		})
	}
	return result, nil
}

// loadOrInit returns cached facts for the fingerprint, or skeleton records
// built from the list file on a first run. A corrupt cache entry is treated
// as a first run rather than an abort.
func (s *Service) loadOrInit(fingerprint, listPath string, delay bool) ([]models.Show, bool, error) {
	shows, err := s.loadCache(fingerprint, delay)
	switch {
	case err == nil:
		return shows, false, nil
	case errors.Is(err, ErrCacheCorrupt):
		log.Printf("[tracker] cache entry %s unreadable, rebuilding from the show list: %v", fingerprint[:12], err)
	case errors.Is(err, fs.ErrNotExist):
		// First encounter of this list content.
	default:
		return nil, false, err
	}

	titles, err := readShowList(s.fs, listPath)
	if err != nil {
		return nil, false, err
	}
	skeletons := make([]models.Show, 0, len(titles))
	for _, title := range titles {
		skeletons = append(skeletons, models.Show{Title: title})
	}
	return skeletons, true, nil
}

// UpdateFacts merges a metadata result into a show's facts and returns the
// new facts; the input is left untouched. A nil result (title not found)
// passes the old facts through so the show resolves to unknown downstream.
func UpdateFacts(old models.Show, res *metadata.ShowResult, delay bool) models.Show {
	if res == nil {
		return old
	}

	show := models.Show{Title: old.Title, Season: res.Season, MetaStatus: res.Status}
	if d, err := dateutil.Parse(res.Premiere); err == nil {
		show.Premiere = dateutil.ApplyDelay(d, delay)
	}
	if d, err := dateutil.Parse(res.End); err == nil {
		show.End = dateutil.ApplyDelay(d, delay)
	}

	show.Episodes = status.SeasonEpisodes(res.Episodes, show.Season, show.End, delay)
	if show.End.IsZero() {
		// No season-level end date: fall back to the air date of the
		// highest-numbered episode as the season boundary.
		show.End = status.SeasonEnd(show.Episodes)
	}
	return show
}
