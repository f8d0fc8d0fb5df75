// Package metadata resolves show titles against the TVMaze API and returns
// the schedule facts the tracker derives statuses from.
package metadata

import (
	"context"
	"log"
	"net/http"
	"time"

	"seasonwatch/models"
	"seasonwatch/utils/similarity"
)

// weakMatchThreshold is the confidence below which a fuzzy search hit is
// logged as a probable mismatch. The result is still used; the log line gives
// the user a chance to fix the list entry.
const weakMatchThreshold = 0.5

// ShowResult is a resolved show: the latest scheduled season, its window,
// the full per-episode listing and the coarse lifecycle status string
// ("Running", "Ended", "To Be Determined"). Dates are raw ISO strings, empty
// when the source has none.
type ShowResult struct {
	Name     string
	Season   int
	Premiere string
	End      string
	Episodes []models.EpisodeListing
	Status   string
}

// Service wraps the TVMaze client with match-confidence logging.
type Service struct {
	client *TVMazeClient
}

func NewService(baseURL string, timeout time.Duration) *Service {
	httpc := &http.Client{Timeout: timeout}
	return &Service{client: NewTVMazeClient(baseURL, httpc)}
}

// NewServiceWithClient is used by tests to inject a mock transport.
func NewServiceWithClient(client *TVMazeClient) *Service {
	return &Service{client: client}
}

// Resolve looks up a title. (nil, nil) means not found.
func (s *Service) Resolve(ctx context.Context, title string) (*ShowResult, error) {
	res, err := s.client.Resolve(ctx, title)
	if err != nil || res == nil {
		return res, err
	}
	if score := similarity.Score(title, res.Name); score < weakMatchThreshold {
		log.Printf("[metadata] weak match for %q: search returned %q (confidence %.2f)", title, res.Name, score)
	}
	return res, nil
}

// Ping reports whether the metadata host is reachable; the tracker uses it
// to skip the whole update phase on a dead connection instead of failing
// show by show.
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
