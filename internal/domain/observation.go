package domain

import "time"

// DayFormat is the ISO-8601 calendar day layout used across the system.
const DayFormat = "2006-01-02"

// Observation represents one coin's market reading tagged with a day.
// Corresponds to the observations table in ClickHouse.
//
// Price, MarketCap and TotalVolume hold values exactly as ingested. Upstream
// runs are not consistent: a field may be a bare number ("0.000012"), carry
// stray formatting ("1,234.56", "$45"), or be empty when the source omitted
// it. The read path normalizes; the store never does.
type Observation struct {
	CoinID      string    // CoinGecko coin identifier
	Date        time.Time // observation timestamp, UTC, semantically a calendar day
	Price       string    // raw price in USD
	MarketCap   string    // raw market capitalization in USD
	TotalVolume string    // raw 24h traded volume in USD
	Seq         uint64    // insertion sequence, tie-break within a day
}

// Day returns the UTC calendar day of the observation as YYYY-MM-DD.
func (o *Observation) Day() string {
	return o.Date.UTC().Format(DayFormat)
}
