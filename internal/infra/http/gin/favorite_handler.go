package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	favoriteapp "quickhost/internal/app/handlers/favorites"
	"quickhost/internal/app/queries"
)

type FavoriteHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type addFavoriteRequest struct {
	ListingID string `json:"accommodation"`
}

func (h FavoriteHandler) List(c *gin.Context) {
	user, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries bus")
		return
	}
	result, err := queries.Ask[favoriteapp.ListFavoritesQuery, dto.FavoriteCollection](c.Request.Context(), h.Queries, favoriteapp.ListFavoritesQuery{UserID: user})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h FavoriteHandler) Add(c *gin.Context) {
	user, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	var req addFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := favoriteapp.AddFavoriteCommand{UserID: user, ListingID: req.ListingID}
	result, err := commands.Dispatch[favoriteapp.AddFavoriteCommand, dto.Favorite](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h FavoriteHandler) Remove(c *gin.Context) {
	user, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	cmd := favoriteapp.RemoveFavoriteCommand{UserID: user, FavoriteID: c.Param("id")}
	if _, err := commands.Dispatch[favoriteapp.RemoveFavoriteCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ FavoriteHTTP = FavoriteHandler{}
