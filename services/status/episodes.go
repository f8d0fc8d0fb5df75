package status

import (
	"time"

	"seasonwatch/models"
	"seasonwatch/utils/dateutil"
)

// SeasonEpisodes builds the per-episode air-date map for one season from a
// full fetched listing. Episodes with a missing or malformed air date get the
// season's end date as a placeholder so the episode count stays correct on
// incomplete upstream data; the placeholder is not the true air date. The
// delay shift is applied here so the map matches the rest of the show's
// dates.
func SeasonEpisodes(listings []models.EpisodeListing, season int, end time.Time, delay bool) map[int]time.Time {
	episodes := make(map[int]time.Time)
	for _, ep := range listings {
		if ep.Season != season {
			continue
		}
		d, err := dateutil.Parse(ep.AirDate)
		if err != nil {
			episodes[ep.Number] = end
			continue
		}
		episodes[ep.Number] = dateutil.ApplyDelay(d, delay)
	}
	if len(episodes) == 0 {
		return nil
	}
	return episodes
}

// SeasonEnd returns the air date of the highest-numbered episode in the map,
// the season-boundary definition used everywhere else.
func SeasonEnd(episodes map[int]time.Time) time.Time {
	max := 0
	for n := range episodes {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return time.Time{}
	}
	return episodes[max]
}
