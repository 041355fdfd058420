// Package media resolves a catalog movie's external images and videos on
// demand. Pure read-through: nothing is persisted, only an optional
// time-bounded cache sits in front of the provider.
package media

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/movie-catalog/internal/imdb"
)

// Image is the outward-facing image descriptor. The type tag is whatever
// the provider reported; classification is a client-side filtering aid.
type Image struct {
	URL    string `json:"url"`
	Type   string `json:"type,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Video is the outward-facing video descriptor with a playable embed URL.
type Video struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Type           string `json:"type,omitempty"`
	Description    string `json:"description,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	RuntimeSeconds int    `json:"runtime_seconds,omitempty"`
	EmbedURL       string `json:"embed_url"`
}

const embedBaseURL = "https://www.imdb.com/videoembed/"

// Cache is the optional TTL cache in front of the provider.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type Resolver struct {
	Provider imdb.Provider
	Cache    Cache // nil disables caching
	Log      *zap.Logger
}

func NewResolver(provider imdb.Provider, cache Cache, log *zap.Logger) *Resolver {
	return &Resolver{Provider: provider, Cache: cache, Log: log}
}

// Images returns every image the provider holds for the id, following
// pagination to exhaustion. A title without media yields an empty slice,
// not an error.
func (r *Resolver) Images(ctx context.Context, imdbID string) ([]Image, error) {
	key := "media:images:" + imdbID
	if r.Cache != nil {
		var cached []Image
		if ok, err := r.Cache.Get(ctx, key, &cached); err != nil {
			r.Log.Warn("media cache get failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	out := []Image{}
	token := ""
	for {
		resp, err := r.Provider.ListImages(ctx, imdbID, token)
		if err != nil {
			if errors.Is(err, imdb.ErrNotFound) {
				return []Image{}, nil
			}
			return nil, err
		}
		for _, im := range resp.Images {
			out = append(out, Image{URL: im.URL, Type: im.Type, Width: im.Width, Height: im.Height})
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}

	r.store(ctx, key, out)
	return out, nil
}

// Videos returns the provider's video descriptors for the id, each with
// a constructed embed URL. Absence of media is a normal outcome.
func (r *Resolver) Videos(ctx context.Context, imdbID string) ([]Video, error) {
	key := "media:videos:" + imdbID
	if r.Cache != nil {
		var cached []Video
		if ok, err := r.Cache.Get(ctx, key, &cached); err != nil {
			r.Log.Warn("media cache get failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	resp, err := r.Provider.ListVideos(ctx, imdbID)
	if err != nil {
		if errors.Is(err, imdb.ErrNotFound) {
			return []Video{}, nil
		}
		return nil, err
	}

	out := make([]Video, 0, len(resp.Videos))
	for _, v := range resp.Videos {
		video := Video{
			ID:             v.ID,
			Name:           v.Name,
			Type:           v.Type,
			Description:    v.Description,
			Width:          v.Width,
			Height:         v.Height,
			RuntimeSeconds: v.RuntimeSeconds,
			EmbedURL:       embedBaseURL + v.ID,
		}
		if v.PrimaryImage != nil {
			video.Thumbnail = v.PrimaryImage.URL
		}
		out = append(out, video)
	}

	r.store(ctx, key, out)
	return out, nil
}

func (r *Resolver) store(ctx context.Context, key string, value any) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Set(ctx, key, value); err != nil {
		r.Log.Warn("media cache set failed", zap.String("key", key), zap.Error(err))
	}
}
