package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/models"
	"golang.org/x/sync/errgroup"
)

const (
	// maxImages caps the uploads of one classify request.
	maxImages = 32

	// maxImageBytes caps a single uploaded image.
	maxImageBytes = 10 << 20

	// maxConcurrentImages bounds in-flight model calls per request.
	maxConcurrentImages = 4
)

// Classifier labels one image.
type Classifier interface {
	Classify(ctx context.Context, filename string, image []byte) (models.PredictionRecord, error)
}

// Classify returns a handler for POST /api/v1/classify.
//
// Accepts multipart form files under "images[]" (or "images") and returns
// one prediction per file in upload order. Images are scored concurrently;
// any failing image fails the request.
func Classify(cl Classifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		form, err := c.MultipartForm()
		if err != nil {
			badRequest(c, "expected a multipart form with images[] files")
			return
		}
		files := form.File["images[]"]
		if len(files) == 0 {
			files = form.File["images"]
		}
		if len(files) == 0 {
			badRequest(c, "no images uploaded")
			return
		}
		if len(files) > maxImages {
			badRequest(c, fmt.Sprintf("at most %d images per request", maxImages))
			return
		}

		preds := make([]models.PredictionRecord, len(files))
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.SetLimit(maxConcurrentImages)
		for i, fh := range files {
			g.Go(func() error {
				img, err := readUpload(fh)
				if err != nil {
					return err
				}
				rec, err := cl.Classify(ctx, fh.Filename, img)
				if err != nil {
					return err
				}
				preds[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(start).Milliseconds()})
			return
		}

		elapsed := time.Since(start).Milliseconds()
		c.JSON(http.StatusOK, models.ClassifyResponse{
			Success:     true,
			Predictions: preds,
			Timing:      models.TimingInfo{TotalMs: elapsed, ScrapeMs: elapsed},
		})
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxImageBytes {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("%s exceeds %d bytes", fh.Filename, maxImageBytes), nil)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "cannot read "+fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxImageBytes))
}
