package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"quickhost/internal/domain/shared/money"
)

// Collection names.
const (
	listingsCollection    = "agg_listing"
	bookingsCollection    = "agg_booking"
	reviewsCollection     = "agg_review"
	favoritesCollection   = "agg_favorite"
	membershipsCollection = "rel_membership"
)

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	currency := d.Currency
	if currency == "" {
		currency = money.DefaultCurrency
	}
	return money.Money{Amount: d.Amount, Currency: currency}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// notFound maps a missing document to the domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel
	}
	return err
}
