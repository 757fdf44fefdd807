package pharmacy

import (
	"testing"
	"time"
)

func TestDaysToExpiry(t *testing.T) {
	now := time.Now()
	tests := []struct {
		until time.Duration
		want  int
	}{
		{48 * time.Hour, 2},
		{24 * time.Hour, 1},
		{12 * time.Hour, 1},
		{0, 0},
		{-24 * time.Hour, -1},
		{29*24*time.Hour + time.Hour, 30},
		{30 * 24 * time.Hour, 30},
	}

	for _, tt := range tests {
		lot := Lot{DateExpiration: now.Add(tt.until)}
		if got := lot.DaysToExpiry(now); got != tt.want {
			t.Errorf("DaysToExpiry(until=%v) = %d, want %d", tt.until, got, tt.want)
		}
	}
}

func TestCheckAvailability(t *testing.T) {
	now := time.Now()

	t.Run("sufficient stock", func(t *testing.T) {
		lot := Lot{QuantiteDisponible: 50, DateExpiration: now.Add(90 * 24 * time.Hour), Status: LotActif}
		a := lot.CheckAvailability(30, now, 30)
		if !a.Sufficient || a.Expired || a.NearExpiry {
			t.Errorf("unexpected availability: %+v", a)
		}
		if a.Available != 50 {
			t.Errorf("Available = %d, want 50", a.Available)
		}
	})

	t.Run("insufficient stock", func(t *testing.T) {
		lot := Lot{QuantiteDisponible: 10, DateExpiration: now.Add(90 * 24 * time.Hour), Status: LotActif}
		a := lot.CheckAvailability(30, now, 30)
		if a.Sufficient {
			t.Error("10 available should not satisfy a request for 30")
		}
	})

	t.Run("expired lot never satisfies", func(t *testing.T) {
		lot := Lot{QuantiteDisponible: 100, DateExpiration: now.Add(-24 * time.Hour), Status: LotActif}
		a := lot.CheckAvailability(1, now, 30)
		if a.Sufficient || !a.Expired {
			t.Errorf("expired lot reported usable: %+v", a)
		}
	})

	t.Run("quarantined lot never satisfies", func(t *testing.T) {
		lot := Lot{QuantiteDisponible: 100, DateExpiration: now.Add(90 * 24 * time.Hour), Status: LotQuarantaine}
		a := lot.CheckAvailability(1, now, 30)
		if a.Sufficient || !a.Expired {
			t.Errorf("quarantined lot reported usable: %+v", a)
		}
	})

	t.Run("near expiry is a warning, not a block", func(t *testing.T) {
		lot := Lot{QuantiteDisponible: 100, DateExpiration: now.Add(10 * 24 * time.Hour), Status: LotActif}
		a := lot.CheckAvailability(5, now, 30)
		if !a.Sufficient {
			t.Error("near-expiry lot should remain usable")
		}
		if !a.NearExpiry {
			t.Error("lot expiring in 10 days should warn with a 30-day window")
		}
	})

	t.Run("exactly at the warning boundary", func(t *testing.T) {
		lot := Lot{QuantiteDisponible: 100, DateExpiration: now.Add(30 * 24 * time.Hour), Status: LotActif}
		a := lot.CheckAvailability(5, now, 30)
		if a.NearExpiry {
			t.Error("30 whole days out should not warn with a 30-day window")
		}
	})
}
