package enums

import "fmt"

// ItemStatus tracks the consignment lifecycle of a single item.
type ItemStatus string

const (
	ItemStatusOnSale      ItemStatus = "on_sale"
	ItemStatusSold        ItemStatus = "sold"
	ItemStatusReclaimable ItemStatus = "reclaimable"
	ItemStatusReclaimed   ItemStatus = "reclaimed"
)

var validItemStatuses = []ItemStatus{
	ItemStatusOnSale,
	ItemStatusSold,
	ItemStatusReclaimable,
	ItemStatusReclaimed,
}

// itemStatusEdges holds the only transitions the lifecycle permits.
// Sold items never return to the rack; reclaimed items are final.
var itemStatusEdges = map[ItemStatus][]ItemStatus{
	ItemStatusOnSale:      {ItemStatusSold, ItemStatusReclaimable},
	ItemStatusSold:        {},
	ItemStatusReclaimable: {ItemStatusReclaimed},
	ItemStatusReclaimed:   {},
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, candidate := range itemStatusEdges[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
