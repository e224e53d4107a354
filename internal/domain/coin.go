package domain

import "time"

// Coin represents a tracked meme coin in the registry.
// Corresponds to the coins table in PostgreSQL.
type Coin struct {
	ID        string    // CoinGecko coin identifier, primary key
	Symbol    string    // ticker symbol, e.g. "doge"
	Name      string    // display name
	Image     *string   // icon URL (nullable)
	MaxSupply *float64  // maximum supply (nullable)
	AddedAt   time.Time // when discovery first saw the coin
}
