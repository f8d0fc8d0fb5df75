package torrents

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"seasonwatch/models"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func scraperWith(rt roundTripFunc) *TorrentProjectScraper {
	return NewTorrentProjectScraper("http://tp.test", "", &http.Client{Transport: rt})
}

func TestSearchRanksBySeeds(t *testing.T) {
	body := `{
		"total_found": "3",
		"0": {"title": "Show.S02E05.720p", "seeds": 40, "torrent_hash": "aaa"},
		"1": {"title": "Show.S02E05.1080p", "seeds": 250, "torrent_hash": "bbb"},
		"2": {"title": "Show.S02E05.HDTV", "seeds": 90, "torrent_hash": "ccc"}
	}`
	s := scraperWith(func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("s"); got != "Show s02e05" {
			t.Fatalf("search query = %q", got)
		}
		if req.URL.Query().Get("orderby") != "seeders" {
			t.Fatal("missing orderby=seeders")
		}
		return jsonResponse(http.StatusOK, body), nil
	})

	got, err := s.Search(context.Background(), SearchRequest{Title: "Show", Season: 2, Episode: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates", len(got))
	}
	if got[0].InfoHash != "bbb" || got[1].InfoHash != "ccc" || got[2].InfoHash != "aaa" {
		t.Errorf("candidates not ranked by seeds: %+v", got)
	}
	if got[0].Source != "torrentproject" {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	s := scraperWith(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"total_found": "0"}`), nil
	})
	got, err := s.Search(context.Background(), SearchRequest{Title: "Show", Season: 1, Episode: 1})
	if err != nil {
		t.Fatalf("empty result must not be an error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want no candidates, got %+v", got)
	}
}

func TestSearchCapsResults(t *testing.T) {
	body := `{
		"0": {"title": "a", "seeds": 5, "torrent_hash": "h0"},
		"1": {"title": "b", "seeds": 4, "torrent_hash": "h1"},
		"2": {"title": "c", "seeds": 3, "torrent_hash": "h2"}
	}`
	s := scraperWith(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	})
	got, err := s.Search(context.Background(), SearchRequest{Title: "Show", Season: 1, Episode: 1, MaxResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("cap not applied, got %d candidates", len(got))
	}
}

func TestSearchSkipsMalformedEntries(t *testing.T) {
	body := `{
		"total_found": "2",
		"0": {"title": "good", "seeds": 9, "torrent_hash": "abc"},
		"1": {"title": "hashless", "seeds": 12, "torrent_hash": ""},
		"weird": "not an entry"
	}`
	s := scraperWith(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	})
	got, err := s.Search(context.Background(), SearchRequest{Title: "Show", Season: 1, Episode: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].InfoHash != "abc" {
		t.Errorf("want only the usable entry, got %+v", got)
	}
}

func TestDownloadUppercasesHash(t *testing.T) {
	s := scraperWith(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/torrent/ABCDEF.torrent" {
			t.Fatalf("download path = %q", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, "d8:announce0:e"), nil
	})
	payload, err := s.Download(context.Background(), models.Candidate{InfoHash: "abcdef"})
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "d8:announce0:e" {
		t.Errorf("payload = %q", payload)
	}
}

func TestDownloadMissingTorrentDoesNotRetry(t *testing.T) {
	attempts := 0
	s := scraperWith(func(req *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(http.StatusNotFound, ""), nil
	})
	if _, err := s.Download(context.Background(), models.Candidate{InfoHash: "abcdef"}); err == nil {
		t.Fatal("want an error for a missing torrent file")
	}
	if attempts != 1 {
		t.Errorf("a 404 must not be retried, got %d attempts", attempts)
	}
}
