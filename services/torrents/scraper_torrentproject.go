package torrents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"seasonwatch/models"
)

const (
	torrentProjectDefaultBaseURL = "https://torrentproject.se"
	torrentProjectTimeout        = 15 * time.Second
)

// TorrentProjectScraper queries the torrentproject JSON search API for
// episode releases, ordered by seed count.
type TorrentProjectScraper struct {
	name    string
	baseURL string
	httpc   *http.Client
}

func NewTorrentProjectScraper(baseURL, name string, httpc *http.Client) *TorrentProjectScraper {
	if httpc == nil {
		httpc = &http.Client{Timeout: torrentProjectTimeout}
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = torrentProjectDefaultBaseURL
	}
	return &TorrentProjectScraper{name: strings.TrimSpace(name), baseURL: baseURL, httpc: httpc}
}

func (t *TorrentProjectScraper) Name() string {
	if t.name != "" {
		return t.name
	}
	return "torrentproject"
}

type torrentProjectEntry struct {
	Title       string `json:"title"`
	Seeds       int    `json:"seeds"`
	TorrentHash string `json:"torrent_hash"`
}

// Search returns candidates for one episode, best-seeded first. An empty
// slice is a valid "nothing found" result, not an error.
func (t *TorrentProjectScraper) Search(ctx context.Context, req SearchRequest) ([]models.Candidate, error) {
	query := fmt.Sprintf("%s s%02de%02d", req.Title, req.Season, req.Episode)
	u := fmt.Sprintf("%s/?s=%s&out=json&orderby=seeders", t.baseURL, url.QueryEscape(query))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("torrentproject search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("torrentproject search: unexpected status %s", resp.Status)
	}

	// The response is a JSON object with numeric string keys for results
	// plus a total_found counter; anything that does not decode as a
	// result entry is skipped.
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("torrentproject search: decode response: %w", err)
	}
	delete(raw, "total_found")

	keys := make([]int, 0, len(raw))
	byKey := make(map[int]torrentProjectEntry, len(raw))
	for k, msg := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		var entry torrentProjectEntry
		if err := json.Unmarshal(msg, &entry); err != nil || entry.TorrentHash == "" {
			continue
		}
		keys = append(keys, idx)
		byKey[idx] = entry
	}
	sort.Ints(keys)

	candidates := make([]models.Candidate, 0, len(keys))
	for _, k := range keys {
		entry := byKey[k]
		candidates = append(candidates, models.Candidate{
			Title:    entry.Title,
			Seeds:    entry.Seeds,
			InfoHash: entry.TorrentHash,
			Source:   t.Name(),
		})
	}
	// The API claims seeder ordering; enforce it so ranking does not
	// depend on upstream behavior.
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Seeds > candidates[j].Seeds })

	if req.MaxResults > 0 && len(candidates) > req.MaxResults {
		candidates = candidates[:req.MaxResults]
	}
	return candidates, nil
}

// Download fetches the .torrent payload for a candidate, with a bounded
// retry on transient failures.
func (t *TorrentProjectScraper) Download(ctx context.Context, c models.Candidate) ([]byte, error) {
	u := fmt.Sprintf("%s/torrent/%s.torrent", t.baseURL, strings.ToUpper(c.InfoHash))

	var payload []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := t.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return retry.Unrecoverable(fmt.Errorf("torrent file gone: %s", resp.Status))
			}
			if resp.StatusCode >= 300 {
				return fmt.Errorf("torrentproject download: unexpected status %s", resp.Status)
			}
			payload, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
	)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
