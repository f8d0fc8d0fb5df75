package models

import "time"

// Status is the derived airing state of a tracked show at an evaluation date.
// It is never persisted as authoritative; it is recomputed on every pass from
// the show's schedule facts.
type Status string

const (
	StatusSoon    Status = "soon"    // season premiere is in the future
	StatusAiring  Status = "airing"  // mid-season, nothing special today
	StatusNew     Status = "new"     // an episode airs today
	StatusLast    Status = "last"    // the season finale airs today
	StatusEnded   Status = "ended"   // season over, show may return
	StatusDone    Status = "done"    // show concluded for good
	StatusUnknown Status = "unknown" // no usable schedule facts
)

// Show holds the schedule facts known for one tracked show. Zero values mean
// "unknown": a zero Season, a zero time.Time, an empty Episodes map. Title is
// the identity key within a tracked list and is always set.
type Show struct {
	Title    string
	Season   int
	Premiere time.Time
	End      time.Time
	Episodes map[int]time.Time

	// MetaStatus is the raw lifecycle string reported by the metadata
	// source ("Running", "Ended", "To Be Determined"). Empty when the show
	// was never resolved. Not persisted to the cache.
	MetaStatus string
}

// FinalEpisode returns the last episode number of the tracked season, or 0
// when it cannot be derived. With a full episode map it is the highest mapped
// number; with only a premiere/end window it follows the weekly cadence.
func (s Show) FinalEpisode() int {
	if len(s.Episodes) > 0 {
		max := 0
		for n := range s.Episodes {
			if n > max {
				max = n
			}
		}
		return max
	}
	if !s.Premiere.IsZero() && !s.End.IsZero() {
		return daysBetween(s.Premiere, s.End)/7 + 1
	}
	return 0
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Evaluation is the status engine's output for one show.
type Evaluation struct {
	Status  Status
	Episode int
	// EpisodeKnown reports whether Episode carries a meaningful value.
	// A show can have a well-defined status with an unresolvable episode
	// number (incomplete upstream data); the status stands on its own.
	EpisodeKnown bool
}

// TrackedShow pairs a show's facts with its evaluation, the unit the
// presentation layer consumes.
type TrackedShow struct {
	Show Show
	Eval Evaluation
}

// CacheRecord is the on-disk form of a show's facts. Dates are strict
// YYYY-MM-DD strings or empty, episode numbers are string keys, and stored
// dates are always delay-free.
type CacheRecord struct {
	Title    string            `json:"title"`
	Season   int               `json:"season"`
	Premiere string            `json:"premiere"`
	End      string            `json:"end"`
	Episodes map[string]string `json:"episodes"`
}

// EpisodeListing is one row of a per-episode season listing as fetched from
// the metadata source, before air dates are parsed and filtered to the
// tracked season.
type EpisodeListing struct {
	Season  int
	Number  int
	AirDate string
}

// Candidate is one ranked download candidate for an episode.
type Candidate struct {
	Title    string
	Seeds    int
	InfoHash string
	Source   string
}
