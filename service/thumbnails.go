package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"depot-hub/entities"
)

// ThumbnailStore mirrors video thumbnails into object storage so the frontend
// does not hotlink the provider's CDN. Mirroring is best-effort: a failed
// download or upload is logged and skipped, it never fails the fetch that
// triggered it.
type ThumbnailStore struct {
	client     *minio.Client
	bucket     string
	httpClient *http.Client
}

func NewThumbnailStore(client *minio.Client, bucket string) *ThumbnailStore {
	return &ThumbnailStore{
		client: client,
		bucket: bucket,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (t *ThumbnailStore) Mirror(ctx context.Context, videos []entities.RhombergVideo) {
	for _, video := range videos {
		if video.ThumbnailURL == "" {
			continue
		}
		if err := t.mirrorOne(ctx, video); err != nil {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("video_id", video.VideoID).
				Msg("failed to mirror thumbnail")
		}
	}
}

func (t *ThumbnailStore) mirrorOne(ctx context.Context, video entities.RhombergVideo) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, video.ThumbnailURL, nil)
	if err != nil {
		return err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thumbnail download returned %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	objectName := fmt.Sprintf("thumbnails/%s.jpg", video.VideoID)
	_, err = t.client.PutObject(ctx, t.bucket, objectName, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}
