package models

import "time"

// SymbolOverview is a consolidated view of one symbol's engine state.
// Note: no transport (json/http) concerns here.
type SymbolOverview struct {
	Symbol    string
	Timeframe string
	Timestamp time.Time
	Snapshot  *Snapshot
	State     *MarketState
	Last      *TradingSignal
	Stats     *VerificationStats
	Errors    map[string]string
}
