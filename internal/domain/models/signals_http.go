package models

// Requests for the signal HTTP endpoints. Defined in domain for consistency and reuse.

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type SignalByIDRequest struct {
	ID string `query:"id" json:"id" validate:"required"`
}

type OverviewRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"5m" validate:"oneof=1m 5m 15m 1h 4h"`
}

type AccuracyRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"5m" validate:"oneof=1m 5m 15m 1h 4h"`
}
