package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stock is a single listed company stored in MongoDB.
type Stock struct {
	ID            primitive.ObjectID `json:"id"                       bson:"_id,omitempty"`
	Symbol        string             `json:"symbol"                   bson:"symbol"`
	Name          string             `json:"name"                     bson:"name"`
	Price         float64            `json:"price"                    bson:"price"`
	ChangePercent *float64           `json:"change_percent,omitempty" bson:"change_percent,omitempty"`
	Volume        *int64             `json:"volume,omitempty"         bson:"volume,omitempty"`
	MarketCap     *float64           `json:"market_cap,omitempty"     bson:"market_cap,omitempty"`
	Sector        string             `json:"sector,omitempty"         bson:"sector,omitempty"`
	CreatedAt     time.Time          `json:"created_at"               bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"               bson:"updated_at"`
}

// StockCreate is the JSON body for POST /stocks.
type StockCreate struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
	Volume        *int64   `json:"volume"`
	MarketCap     *float64 `json:"market_cap"`
	Sector        string   `json:"sector"`
}

// StockUpdate is the JSON body for PUT /stocks/{stock_id}. Nil pointers
// mean "leave unchanged".
type StockUpdate struct {
	Symbol        *string  `json:"symbol"`
	Name          *string  `json:"name"`
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
	Volume        *int64   `json:"volume"`
	MarketCap     *float64 `json:"market_cap"`
	Sector        *string  `json:"sector"`
}
