package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"seasonwatch/models"
)

const defaultBaseURL = "https://api.tvmaze.com"

// TVMazeClient is a minimal TVMaze client covering the one endpoint the
// tracker needs: fuzzy single-show search with embedded season and episode
// listings.
type TVMazeClient struct {
	baseURL string
	httpc   *http.Client
}

func NewTVMazeClient(baseURL string, httpc *http.Client) *TVMazeClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &TVMazeClient{baseURL: baseURL, httpc: httpc}
}

type tvmazeShow struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Embedded struct {
		Seasons []struct {
			Number       int    `json:"number"`
			PremiereDate string `json:"premiereDate"`
			EndDate      string `json:"endDate"`
		} `json:"seasons"`
		Episodes []struct {
			Season  int    `json:"season"`
			Number  int    `json:"number"`
			AirDate string `json:"airdate"`
		} `json:"episodes"`
	} `json:"_embedded"`
}

// Resolve looks a show up by title. A (nil, nil) return means the title did
// not resolve to anything; absence of metadata is a normal outcome, not an
// error.
func (c *TVMazeClient) Resolve(ctx context.Context, title string) (*ShowResult, error) {
	q := url.Values{}
	q.Set("q", title)
	u := fmt.Sprintf("%s/singlesearch/shows?%s&embed[]=seasons&embed[]=episodes", c.baseURL, q.Encode())

	var payload tvmazeShow
	found, err := c.doGET(ctx, u, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	res := &ShowResult{Name: payload.Name, Status: payload.Status}

	// The tracked season is the latest one that has a premiere date;
	// trailing announced-but-unscheduled seasons are skipped.
	for i := len(payload.Embedded.Seasons) - 1; i >= 0; i-- {
		season := payload.Embedded.Seasons[i]
		if season.PremiereDate == "" {
			continue
		}
		res.Season = season.Number
		res.Premiere = season.PremiereDate
		res.End = season.EndDate
		break
	}

	for _, ep := range payload.Embedded.Episodes {
		res.Episodes = append(res.Episodes, models.EpisodeListing{
			Season:  ep.Season,
			Number:  ep.Number,
			AirDate: ep.AirDate,
		})
	}
	return res, nil
}

// Ping checks that the metadata host is reachable at all. Any HTTP response
// counts; only a transport-level failure reports the host as down.
func (c *TVMazeClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("metadata host unreachable: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// doGET fetches and decodes a JSON document with a small bounded retry on
// transport errors, rate limiting and server errors. Returns found=false on
// a 404.
func (c *TVMazeClient) doGET(ctx context.Context, u string, v any) (bool, error) {
	var lastErr error
	backoff := 300 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return false, err
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return false, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("tvmaze: %s", resp.Status)
			continue
		case resp.StatusCode >= 300:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return false, fmt.Errorf("tvmaze: unexpected status %s", resp.Status)
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return false, fmt.Errorf("tvmaze: decode response: %w", err)
		}
		return true, nil
	}
	return false, lastErr
}
