package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	reviewapp "quickhost/internal/app/handlers/reviews"
	"quickhost/internal/app/queries"
)

type ReviewHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type updateReviewRequest struct {
	ListingID *string `json:"accommodation"`
	Rating    *int    `json:"rating"`
	Comment   *string `json:"comment"`
}

func (h ReviewHandler) ListForListing(c *gin.Context) {
	if h.Queries == nil {
		unavailable(c, "queries bus")
		return
	}
	query := reviewapp.ListListingReviewsQuery{
		ListingID: c.Param("id"),
		Limit:     parseInt(c.Query("limit")),
		Offset:    parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[reviewapp.ListListingReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) Create(c *gin.Context) {
	author, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := reviewapp.CreateReviewCommand{
		AuthorID:  author,
		ListingID: c.Param("id"),
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	result, err := commands.Dispatch[reviewapp.CreateReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReviewHandler) Update(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := reviewapp.UpdateReviewCommand{
		CallerID:  caller,
		ReviewID:  c.Param("id"),
		ListingID: req.ListingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	result, err := commands.Dispatch[reviewapp.UpdateReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) Delete(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	cmd := reviewapp.DeleteReviewCommand{CallerID: caller, ReviewID: c.Param("id")}
	if _, err := commands.Dispatch[reviewapp.DeleteReviewCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ ReviewHTTP = ReviewHandler{}
