package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Advertising is a purchasable placement, priced per Measurement unit.
// Name, Measurement, and UnitPrice together form the natural key used to
// re-identify an advertising across backends.
type Advertising struct {
	ID          string
	Category    *Category
	Name        string
	Measurement string
	UnitPrice   decimal.Decimal
	Description string
	UpdatedAt   time.Time
}

// Clone returns a deep copy of the advertising, including its category.
func (a *Advertising) Clone() *Advertising {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Category = a.Category.Clone()
	return &cp
}

// MatchesNaturalKey reports whether the advertising has the given name,
// measurement, and unit price.
func (a *Advertising) MatchesNaturalKey(name, measurement string, unitPrice decimal.Decimal) bool {
	return a.Name == name && a.Measurement == measurement && a.UnitPrice.Equal(unitPrice)
}

// sameIdentity reports whether two advertisings refer to the same placement.
// Saved advertisings compare by ID; unsaved ones fall back to the natural key.
func (a *Advertising) sameIdentity(b *Advertising) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return b.MatchesNaturalKey(a.Name, a.Measurement, a.UnitPrice)
}
