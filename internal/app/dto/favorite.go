package dto

import (
	"time"

	domainfavorites "quickhost/internal/domain/favorites"
)

type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	ListingID string    `json:"accommodation"`
	CreatedAt time.Time `json:"created_at"`
}

type FavoriteCollection struct {
	Items []Favorite `json:"items"`
}

func MapFavorite(f *domainfavorites.Favorite) Favorite {
	if f == nil {
		return Favorite{}
	}
	return Favorite{
		ID:        string(f.ID),
		UserID:    f.UserID,
		ListingID: string(f.ListingID),
		CreatedAt: f.CreatedAt,
	}
}
