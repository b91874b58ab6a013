package tmdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	apperrors "github.com/lepinkainen/lumo/internal/errors"
)

const originalImageSize = "original"

// SavePoster downloads the full-size poster of title and stores it as a JPEG at
// savePath, scaled down to maxWidth when wider.
func (c *Client) SavePoster(ctx context.Context, title NormalizedTitle, savePath string, maxWidth int) error {
	posterURL := c.ImageURL(title.PosterPath, originalImageSize)
	if posterURL == nil {
		return ErrNoPoster
	}
	if err := c.downloadAndResizeImage(ctx, *posterURL, savePath, maxWidth); err != nil {
		return fmt.Errorf("saving poster for %s %d: %w", title.Kind, title.ID, err)
	}
	slog.Info("Saved poster", "title", title.Title, "path", savePath)
	return nil
}

func (c *Client) downloadAndResizeImage(ctx context.Context, imageURL, savePath string, maxWidth int) error {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewStatusError("tmdb image", resp.StatusCode, "")
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return err
	}

	return imaging.Save(img, savePath, imaging.JPEGQuality(85))
}
