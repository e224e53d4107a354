package metrics

import (
	"testing"
	"time"

	"memecoin-radar/internal/domain"
)

// Helper to parse a calendar day in UTC.
func obsDay(s string) time.Time {
	d, err := time.Parse(domain.DayFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

// Helper to build an observation with raw string values.
func makeObs(coinID, day string, seq uint64, price, marketCap, volume string) *domain.Observation {
	return &domain.Observation{
		CoinID:      coinID,
		Date:        obsDay(day),
		Price:       price,
		MarketCap:   marketCap,
		TotalVolume: volume,
		Seq:         seq,
	}
}

func TestSnapshotByCoin_PicksMostRecentPerCoin(t *testing.T) {
	obs := []*domain.Observation{
		makeObs("dogecoin", "2025-08-01", 1, "0.10", "1000", "50"),
		makeObs("dogecoin", "2025-08-03", 2, "0.15", "1500", "70"),
		makeObs("dogecoin", "2025-08-02", 3, "0.12", "1200", "60"),
		makeObs("shiba-inu", "2025-08-01", 4, "0.01", "500", "20"),
	}

	snapshots := SnapshotByCoin(obs)

	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots["dogecoin"].Price != "0.15" {
		t.Errorf("expected dogecoin price 0.15 (newest), got %s", snapshots["dogecoin"].Price)
	}
	if snapshots["shiba-inu"].Price != "0.01" {
		t.Errorf("expected shiba-inu price 0.01, got %s", snapshots["shiba-inu"].Price)
	}
}

func TestSnapshotByCoin_InputOrderDoesNotMatter(t *testing.T) {
	// Same observations in two different input orders must resolve identically
	a := makeObs("dogecoin", "2025-08-01", 1, "0.10", "1000", "50")
	b := makeObs("dogecoin", "2025-08-05", 2, "0.20", "2000", "80")

	forward := SnapshotByCoin([]*domain.Observation{a, b})
	backward := SnapshotByCoin([]*domain.Observation{b, a})

	if forward["dogecoin"].Price != "0.20" {
		t.Errorf("forward: expected price 0.20, got %s", forward["dogecoin"].Price)
	}
	if backward["dogecoin"].Price != "0.20" {
		t.Errorf("backward: expected price 0.20, got %s", backward["dogecoin"].Price)
	}
}

func TestSnapshotByCoin_SequenceBreaksSameDayTies(t *testing.T) {
	// Two ingestion runs wrote the same coin on the same day. The later
	// insertion (higher seq) is the fresher record and must win.
	obs := []*domain.Observation{
		makeObs("pepe", "2025-08-04", 10, "0.000011", "110", "5"),
		makeObs("pepe", "2025-08-04", 42, "0.000012", "120", "6"),
	}

	snapshots := SnapshotByCoin(obs)

	if snapshots["pepe"].Seq != 42 {
		t.Errorf("expected seq 42 to win the tie, got %d", snapshots["pepe"].Seq)
	}
}

func TestSnapshotByCoin_DoesNotMutateInput(t *testing.T) {
	obs := []*domain.Observation{
		makeObs("dogecoin", "2025-08-03", 2, "0.15", "1500", "70"),
		makeObs("dogecoin", "2025-08-01", 1, "0.10", "1000", "50"),
	}

	SnapshotByCoin(obs)

	if obs[0].Date != obsDay("2025-08-03") || obs[1].Date != obsDay("2025-08-01") {
		t.Error("input slice was reordered")
	}
}

func TestSnapshotByCoin_Empty(t *testing.T) {
	if got := SnapshotByCoin(nil); len(got) != 0 {
		t.Errorf("expected empty map for nil input, got %d entries", len(got))
	}
	if got := SnapshotByCoin([]*domain.Observation{}); len(got) != 0 {
		t.Errorf("expected empty map for empty input, got %d entries", len(got))
	}
}
