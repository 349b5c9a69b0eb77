package entity

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAdvertising_MatchesNaturalKey(t *testing.T) {
	ad := &Advertising{
		Name:        "Prime time spot",
		Measurement: "30s",
		UnitPrice:   decimal.RequireFromString("1500.00"),
	}

	t.Run("matches on all three fields", func(t *testing.T) {
		if !ad.MatchesNaturalKey("Prime time spot", "30s", decimal.RequireFromString("1500.00")) {
			t.Error("expected natural key to match")
		}
	})

	t.Run("unit price compares by value, not representation", func(t *testing.T) {
		if !ad.MatchesNaturalKey("Prime time spot", "30s", decimal.RequireFromString("1500")) {
			t.Error("expected 1500 to equal 1500.00")
		}
	})

	t.Run("any differing field misses", func(t *testing.T) {
		if ad.MatchesNaturalKey("Prime time spot", "60s", decimal.RequireFromString("1500.00")) {
			t.Error("expected differing measurement to miss")
		}
		if ad.MatchesNaturalKey("Prime time spot", "30s", decimal.RequireFromString("1500.01")) {
			t.Error("expected differing unit price to miss")
		}
	})
}

func TestAdvertising_Clone(t *testing.T) {
	ad := &Advertising{
		ID:       "10",
		Category: &Category{ID: "1", Name: "TV"},
		Name:     "Prime time spot",
	}

	cp := ad.Clone()
	cp.Category.Name = "Radio"
	cp.Name = "changed"

	if ad.Category.Name != "TV" {
		t.Error("clone mutation changed source category")
	}
	if ad.Name != "Prime time spot" {
		t.Error("clone mutation changed source name")
	}
}

func TestClone_Nil(t *testing.T) {
	if (*Category)(nil).Clone() != nil {
		t.Error("nil category clone should be nil")
	}
	if (*Client)(nil).Clone() != nil {
		t.Error("nil client clone should be nil")
	}
	if (*Advertising)(nil).Clone() != nil {
		t.Error("nil advertising clone should be nil")
	}
	if (*Program)(nil).Clone() != nil {
		t.Error("nil program clone should be nil")
	}
}
