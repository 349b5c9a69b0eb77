package entity

import "time"

// LineItem pairs an advertising with the quantity booked in a program.
type LineItem struct {
	Advertising *Advertising
	Quantity    int
}

// Program is a campaign that bundles advertisings with quantities for one
// client. Line items are unique per advertising identity and carry no
// ordering guarantee. A program with no line items is valid; an advertising
// absent from the list is not part of the campaign.
type Program struct {
	ID            string
	Client        *Client
	CampaignTitle string
	Description   string
	CreatedAt     time.Time
	Advertisings  []LineItem
}

// AddAdvertising books an advertising with the given quantity. A line item
// for the same advertising identity is replaced, not duplicated.
func (p *Program) AddAdvertising(ad *Advertising, quantity int) {
	for i, item := range p.Advertisings {
		if item.Advertising.sameIdentity(ad) {
			p.Advertisings[i] = LineItem{Advertising: ad, Quantity: quantity}
			return
		}
	}
	p.Advertisings = append(p.Advertisings, LineItem{Advertising: ad, Quantity: quantity})
}

// RemoveAdvertising drops the line item for the given advertising ID.
// It reports whether a line item was removed.
func (p *Program) RemoveAdvertising(advertisingID string) bool {
	for i, item := range p.Advertisings {
		if item.Advertising.ID == advertisingID {
			p.Advertisings = append(p.Advertisings[:i], p.Advertisings[i+1:]...)
			return true
		}
	}
	return false
}

// Quantity returns the booked quantity for the given advertising ID.
// The second result reports whether the advertising is part of the program.
func (p *Program) Quantity(advertisingID string) (int, bool) {
	for _, item := range p.Advertisings {
		if item.Advertising.ID == advertisingID {
			return item.Quantity, true
		}
	}
	return 0, false
}

// Clone returns a deep copy of the program, including its client and all
// line items.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Client = p.Client.Clone()
	if p.Advertisings != nil {
		cp.Advertisings = make([]LineItem, len(p.Advertisings))
		for i, item := range p.Advertisings {
			cp.Advertisings[i] = LineItem{
				Advertising: item.Advertising.Clone(),
				Quantity:    item.Quantity,
			}
		}
	}
	return &cp
}
