// Package entity defines the advertising-campaign domain model: categories,
// clients, advertisings, and campaign programs. Entities are plain value
// objects; field validation happens at the repository boundary, and IDs are
// assigned by the storage backend on Save.
package entity

// Category groups advertisings by medium (TV, radio, print, ...).
type Category struct {
	ID   string
	Name string
}

// Clone returns an independent copy of the category.
func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
