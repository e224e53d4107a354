package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"memecoin-radar/internal/domain"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Meme Coin Market Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Market overview
	sb.WriteString("## Market Overview\n\n")
	if r.TopCoins != nil {
		sb.WriteString(fmt.Sprintf("Total meme coin market cap: %s USD\n\n", formatAmount(r.TopCoins.TotalMarketCap)))
		sb.WriteString("| Rank | Symbol | Last Price | Market Cap |\n")
		sb.WriteString("|------|--------|------------|------------|\n")
		for i, c := range r.TopCoins.TopCoins {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
				i+1, c.Symbol, formatAmount(c.LastPrice), formatAmount(c.MarketCap)))
		}
	} else {
		sb.WriteString("No market data available.\n")
	}
	sb.WriteString("\n")

	writeMovers(&sb, "## Top Gainers (7d)", r.Gainers)
	writeMovers(&sb, "## Top Losers (7d)", r.Losers)

	// Traded volume
	sb.WriteString("## Traded Volume (30d)\n\n")
	if r.Volume != nil && len(r.Volume.VolumeOverTime) > 0 {
		sb.WriteString("| Date | Total Volume |\n")
		sb.WriteString("|------|--------------|\n")
		for _, p := range r.Volume.VolumeOverTime {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Date, formatAmount(p.TotalVolume)))
		}
	} else {
		sb.WriteString("No volume data available.\n")
	}
	sb.WriteString("\n")

	// Sentiment
	sb.WriteString("## Market Sentiment (7d)\n\n")
	if r.Sentiment != nil {
		v := r.Sentiment.BearVsBullIndicator
		sb.WriteString(fmt.Sprintf("Bear vs bull indicator: %.2f (%s)\n", v, sentimentLabel(v)))
	} else {
		sb.WriteString("No sentiment data available.\n")
	}
	sb.WriteString("\n")

	// Dominance
	sb.WriteString("## Bitcoin vs Meme Volume (7d)\n\n")
	if r.Dominance != nil {
		sb.WriteString(fmt.Sprintf("Meme share of combined traded volume: %.2f%%\n", r.Dominance.BitcoinVsMemeIndicator))
	} else {
		sb.WriteString("No dominance data available.\n")
	}
	sb.WriteString("\n")

	// Warnings (only shown if present)
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeMovers(sb *strings.Builder, heading string, movers *domain.TopMoversReport) {
	sb.WriteString(heading + "\n\n")
	if movers != nil && len(movers.TopMovers) > 0 {
		sb.WriteString("| Symbol | Change % | First Price | Last Price |\n")
		sb.WriteString("|--------|----------|-------------|------------|\n")
		for _, m := range movers.TopMovers {
			first, last := historyEnds(m.PriceHistory)
			sb.WriteString(fmt.Sprintf("| %s | %+.2f | %s | %s |\n",
				m.Symbol, m.PercentageChange, first, last))
		}
	} else {
		sb.WriteString("No mover data available.\n")
	}
	sb.WriteString("\n")
}

func historyEnds(history []domain.PricePoint) (string, string) {
	if len(history) == 0 {
		return "-", "-"
	}
	return formatAmount(history[0].Price), formatAmount(history[len(history)-1].Price)
}

func sentimentLabel(v float64) string {
	switch {
	case v > 50:
		return "bullish"
	case v < 50:
		return "bearish"
	default:
		return "neutral"
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
