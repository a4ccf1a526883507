package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

// ReviewHandler handles HTTP requests for book reviews.
type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// List handles GET /api/reviews.
//
// @Summary      List all reviews
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   reviewResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/reviews [get]
func (h *ReviewHandler) List(c echo.Context) error {
	views, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewResponses(views))
}

// ListByUser handles GET /api/reviews/user/:userId.
//
// @Summary      List reviews written by a user
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      int  true  "User id"
// @Success      200     {array}   reviewResponse
// @Failure      400     {object}  errorResponse
// @Router       /api/reviews/user/{userId} [get]
func (h *ReviewHandler) ListByUser(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	views, err := h.service.ListByUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewResponses(views))
}

// ListByBook handles GET /api/reviews/book/:bookId.
//
// @Summary      List reviews of a book
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        bookId  path      int  true  "Book id"
// @Success      200     {array}   reviewResponse
// @Failure      400     {object}  errorResponse
// @Router       /api/reviews/book/{bookId} [get]
func (h *ReviewHandler) ListByBook(c echo.Context) error {
	id, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	views, err := h.service.ListByBook(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewResponses(views))
}

// Create handles POST /api/reviews. The caller becomes the author.
//
// @Summary      Create a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReviewRequest  true  "Review"
// @Success      201   {object}  reviewResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/reviews [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.service.Create(c.Request().Context(), ports.CreateReviewInput{
		Author:  p,
		BookID:  req.BookID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReviewResponse(*view))
}

// Update handles PUT /api/reviews/:id.
//
// @Summary      Update a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Review id"
// @Param        body  body      updateReviewRequest  true  "New rating and comment"
// @Success      200   {object}  reviewResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/reviews/{id} [put]
func (h *ReviewHandler) Update(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.service.Update(c.Request().Context(), ports.UpdateReviewInput{
		Editor:  p,
		ID:      id,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewResponse(*view))
}

// Delete handles DELETE /api/reviews/:id.
//
// @Summary      Delete a review
// @Tags         reviews
// @Security     BearerAuth
// @Param        id  path  int  true  "Review id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/reviews/{id} [delete]
func (h *ReviewHandler) Delete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
