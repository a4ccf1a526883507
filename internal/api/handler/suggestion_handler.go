package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

// SuggestionHandler serves the public /api/ai endpoints.
type SuggestionHandler struct {
	service ports.SuggestionService
}

func NewSuggestionHandler(service ports.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: service}
}

// Suggest handles GET /api/ai/suggestions?q=&limit=.
//
// @Summary      Suggest books by title or author
// @Tags         ai
// @Produce      json
// @Param        q      query     string  true   "Search text"
// @Param        limit  query     int     false  "Maximum results (default 5, max 20)"
// @Success      200    {array}   suggestionResponse
// @Failure      400    {object}  errorResponse
// @Router       /api/ai/suggestions [get]
func (h *SuggestionHandler) Suggest(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	books, err := h.service.Suggest(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSuggestionResponses(books))
}
