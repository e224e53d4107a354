package report

import (
	"fmt"
	"strings"

	"memecoin-radar/internal/domain"
)

// RenderTopCoinsCSV renders the market overview rows as CSV.
func RenderTopCoinsCSV(coins []domain.CoinSnapshot) string {
	var sb strings.Builder
	sb.WriteString("symbol,last_price,market_cap\n")
	for _, c := range coins {
		sb.WriteString(fmt.Sprintf("%s,%s,%s\n", c.Symbol, formatAmount(c.LastPrice), formatAmount(c.MarketCap)))
	}
	return sb.String()
}

// RenderMoversCSV renders gainers or losers as CSV.
func RenderMoversCSV(movers []domain.MoverRecord) string {
	var sb strings.Builder
	sb.WriteString("symbol,percentage_change\n")
	for _, m := range movers {
		sb.WriteString(fmt.Sprintf("%s,%.2f\n", m.Symbol, m.PercentageChange))
	}
	return sb.String()
}

// RenderVolumeCSV renders the per-day volume series as CSV.
func RenderVolumeCSV(points []domain.VolumePoint) string {
	var sb strings.Builder
	sb.WriteString("date,total_volume\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%s\n", p.Date, formatAmount(p.TotalVolume)))
	}
	return sb.String()
}
