// Package torrents finds ranked download candidates for an episode and
// fetches the chosen one's .torrent payload.
package torrents

import (
	"context"
	"log"
	"net/http"

	"seasonwatch/models"
)

// SearchRequest identifies one episode of one show.
type SearchRequest struct {
	Title      string
	Season     int
	Episode    int
	MaxResults int
}

// Scraper is one torrent search backend.
type Scraper interface {
	Name() string
	Search(ctx context.Context, req SearchRequest) ([]models.Candidate, error)
	Download(ctx context.Context, c models.Candidate) ([]byte, error)
}

// Service coordinates episode searches against the configured scraper.
type Service struct {
	scraper    Scraper
	maxResults int
}

func NewService(baseURL string, maxResults int, httpc *http.Client) *Service {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Service{
		scraper:    NewTorrentProjectScraper(baseURL, "", httpc),
		maxResults: maxResults,
	}
}

// NewServiceWithScraper is used by tests and alternative backends.
func NewServiceWithScraper(scraper Scraper, maxResults int) *Service {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Service{scraper: scraper, maxResults: maxResults}
}

// SearchEpisode returns up to maxResults candidates, best-seeded first.
func (s *Service) SearchEpisode(ctx context.Context, title string, season, episode int) ([]models.Candidate, error) {
	req := SearchRequest{Title: title, Season: season, Episode: episode, MaxResults: s.maxResults}
	candidates, err := s.scraper.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("[torrents] %s: %d candidates for %q S%02dE%02d", s.scraper.Name(), len(candidates), title, season, episode)
	return candidates, nil
}

// Download fetches the .torrent payload for a chosen candidate.
func (s *Service) Download(ctx context.Context, c models.Candidate) ([]byte, error) {
	return s.scraper.Download(ctx, c)
}
