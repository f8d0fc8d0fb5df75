// Package status derives a show's airing state and current episode number
// from its schedule facts and an evaluation date. Everything here is pure:
// the same facts and date always produce the same evaluation, regardless of
// what was computed on earlier passes.
package status

import (
	"sort"
	"time"

	"seasonwatch/models"
	"seasonwatch/utils/dateutil"
)

// Lifecycle strings reported by the metadata source.
const (
	MetaEnded = "Ended"
	MetaTBD   = "To Be Determined"
)

// Compute evaluates a show against the given date. The rules run in a fixed
// priority order: explicit per-episode dates first, the coarse premiere/end
// window last, with the metadata-reported lifecycle as a tiebreaker in
// between when date-based signals are silent.
func Compute(show models.Show, today time.Time) models.Evaluation {
	today = dateutil.Today(today)

	if !show.End.IsZero() {
		if today.After(show.End) {
			st := models.StatusEnded
			if show.MetaStatus == MetaEnded {
				st = models.StatusDone
			}
			return withFinalEpisode(show, st)
		}
		if today.Equal(show.End) {
			return withFinalEpisode(show, models.StatusLast)
		}
	}

	if airsOn(show.Episodes, today) {
		ep, ok := resolveEpisode(show, today)
		return models.Evaluation{Status: models.StatusNew, Episode: ep, EpisodeKnown: ok}
	}

	switch show.MetaStatus {
	case MetaEnded:
		return withFinalEpisode(show, models.StatusDone)
	case MetaTBD:
		return withFinalEpisode(show, models.StatusEnded)
	}

	if !show.Premiere.IsZero() {
		if !show.End.IsZero() && show.Premiere.Before(today) && today.Before(show.End) {
			ep, ok := resolveEpisode(show, today)
			return models.Evaluation{Status: models.StatusAiring, Episode: ep, EpisodeKnown: ok}
		}
		if show.Premiere.After(today) {
			return models.Evaluation{Status: models.StatusSoon}
		}
	}

	return models.Evaluation{Status: models.StatusUnknown}
}

func withFinalEpisode(show models.Show, st models.Status) models.Evaluation {
	final := show.FinalEpisode()
	return models.Evaluation{Status: st, Episode: final, EpisodeKnown: final > 0}
}

func airsOn(episodes map[int]time.Time, day time.Time) bool {
	for _, d := range episodes {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

// resolveEpisode maps the evaluation date to an episode number. With a full
// episode map it matches ISO week numbers, falling back one week when a
// double-episode week has shifted the schedule; that fallback is a preserved
// heuristic for known data irregularities, not a guaranteed-correct
// algorithm. Without a map it assumes a strict weekly cadence from the
// premiere, which is unreliable for irregular schedules.
func resolveEpisode(show models.Show, today time.Time) (int, bool) {
	if len(show.Episodes) > 0 {
		if !show.End.IsZero() && today.After(show.End) {
			return show.FinalEpisode(), true
		}
		week := dateutil.ISOWeek(today)
		if ep := matchWeek(show.Episodes, week); ep > 0 {
			return ep, true
		}
		if ep := matchWeek(show.Episodes, week-1); ep > 0 {
			return ep, true
		}
		return 0, false
	}

	if !show.Premiere.IsZero() && !today.Before(show.Premiere) {
		return dateutil.DaysBetween(show.Premiere, today)/7 + 1, true
	}
	return 0, false
}

// matchWeek returns the highest-numbered episode airing in the given ISO
// week, or 0. Ascending iteration keeps the answer deterministic when a
// double episode puts two entries in one week.
func matchWeek(episodes map[int]time.Time, week int) int {
	nums := make([]int, 0, len(episodes))
	for n := range episodes {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	match := 0
	for _, n := range nums {
		if dateutil.ISOWeek(episodes[n]) == week {
			match = n
		}
	}
	return match
}
