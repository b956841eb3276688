package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/models"
	"github.com/use-agent/producerecipe/recipe"
)

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Success bool                `json:"success"`
	Error   *models.ErrorDetail `json:"error"`
	Timing  models.TimingInfo   `json:"timing"`
}

// respondError maps an error to the correct HTTP status code and writes a
// structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr := toScrapeError(err)
	c.JSON(mapErrorToStatus(scrapeErr), errorBody{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

func toScrapeError(err error) *models.ScrapeError {
	if errors.Is(err, recipe.ErrExhausted) {
		return models.NewScrapeError(models.ErrCodeRecipeExhausted,
			"Error parsing JSON-LD script, try another recipe.", err)
	}
	var scrapeErr *models.ScrapeError
	if errors.As(err, &scrapeErr) {
		return scrapeErr
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeFetchFailed, models.ErrCodeClassifyFailed:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnsupportedImage:
		return http.StatusUnsupportedMediaType // 415
	case models.ErrCodeRecipeExhausted:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeWorkflowOrder:
		return http.StatusConflict // 409
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: msg},
	})
}
