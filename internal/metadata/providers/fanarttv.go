package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/httpfetch"
	"github.com/larsgrootkarzijn/audiocontrold/internal/ratelimit"
)

const (
	fanartTVBaseURL = "https://webservice.fanart.tv/v3"
	fanartTVService = "fanarttv"
)

// FanartTV fetches artist thumbnails and banners from fanart.tv, which
// is the only provider in the set that returns an explicit "likes"
// count per image; that count is surfaced as ImageRef.Grade so the
// cover-art manager's callers can pick the best-liked image.
type FanartTV struct {
	fetcher *httpfetch.Fetcher
	limiter *ratelimit.Limiter
	apiKey  string
}

// NewFanartTV wires a fanart.tv provider. A 2 req/s limit matches the
// documented fanart.tv free-tier guideline.
func NewFanartTV(fetcher *httpfetch.Fetcher, limiter *ratelimit.Limiter, apiKey string) *FanartTV {
	limiter.RegisterPerSecond(fanartTVService, 2)
	return &FanartTV{fetcher: fetcher, limiter: limiter, apiKey: apiKey}
}

func (f *FanartTV) Name() string { return "fanarttv" }

type fanartImage struct {
	URL   string `json:"url"`
	Likes string `json:"likes"`
}

// FetchCover expects hint.ArtistMBID and returns every thumb,
// background and banner image fanart.tv has on file, graded by like
// count.
func (f *FanartTV) FetchCover(ctx context.Context, hint CoverHint) ([]ImageRef, error) {
	if hint.ArtistMBID == "" || f.apiKey == "" {
		return nil, nil
	}
	if err := f.limiter.Wait(ctx, fanartTVService); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/music/%s?api_key=%s", fanartTVBaseURL, hint.ArtistMBID, f.apiKey)
	resp, err := f.fetcher.GetJSONWithHeaders(reqURL, nil)
	if err != nil {
		var fe *httpfetch.Error
		if errors.As(err, &fe) && fe.Kind == httpfetch.KindServerError && fe.StatusCode == 404 {
			return nil, nil
		}
		return nil, err
	}

	var refs []ImageRef
	for _, field := range []string{"artistthumb", "artistbackground", "musicbanner"} {
		raw, _ := resp[field].([]any)
		for _, item := range raw {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			url, _ := obj["url"].(string)
			if url == "" {
				continue
			}
			likes, _ := obj["likes"].(string)
			refs = append(refs, ImageRef{URL: url, Grade: parseLikes(likes), Provider: f.Name()})
		}
	}
	return refs, nil
}

func parseLikes(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
