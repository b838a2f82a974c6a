package chanlist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortField names a field of SortKey.
type SortField string

const (
	SortLastMessageAt SortField = "last_message_at"
	SortUpdatedAt     SortField = "updated_at"
	SortCreatedAt     SortField = "created_at"
	SortMemberCount   SortField = "member_count"
	SortUnreadCount   SortField = "unread_count"
	SortName          SortField = "name"
)

// Direction is the sort direction of a field.
type Direction int

const (
	Descending Direction = -1
	Ascending  Direction = 1
)

// SortOption orders by one field.
type SortOption struct {
	Field     SortField
	Direction Direction
}

// SortSpec is a list of fields applied in priority order.
type SortSpec []SortOption

// DefaultSort orders channels by most recent message first.
func DefaultSort() SortSpec {
	return SortSpec{{Field: SortLastMessageAt, Direction: Descending}}
}

// Validate reports unknown fields or directions.
func (s SortSpec) Validate() error {
	for i, opt := range s {
		switch opt.Field {
		case SortLastMessageAt, SortUpdatedAt, SortCreatedAt, SortMemberCount, SortUnreadCount, SortName:
		default:
			return fmt.Errorf("sort[%d]: unknown field %q", i, opt.Field)
		}
		if opt.Direction != Ascending && opt.Direction != Descending {
			return fmt.Errorf("sort[%d]: direction must be 1 or -1, got %d", i, opt.Direction)
		}
	}
	return nil
}

// ParseDirection accepts "asc"/"desc" as well as "1"/"-1".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "1":
		return Ascending, nil
	case "desc", "descending", "-1":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown sort direction %q", s)
}

// Compare orders a before b (negative), after b (positive) or never equal
// for distinct IDs: ties on every field fall back to the channel ID so the
// order is total.
func Compare(a, b Channel, spec SortSpec) int {
	for _, opt := range spec {
		c := compareField(a.SortKey, b.SortKey, opt.Field)
		if c == 0 {
			continue
		}
		if opt.Direction == Descending {
			return -c
		}
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func compareField(a, b SortKey, f SortField) int {
	switch f {
	case SortLastMessageAt:
		return a.LastMessageAt.Compare(b.LastMessageAt)
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortMemberCount:
		return cmp.Compare(a.MemberCount, b.MemberCount)
	case SortUnreadCount:
		return cmp.Compare(a.UnreadCount, b.UnreadCount)
	case SortName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	return 0
}

// SortChannels sorts items in place by spec.
func SortChannels(items []Channel, spec SortSpec) {
	slices.SortStableFunc(items, func(a, b Channel) int {
		return Compare(a, b, spec)
	})
}

// MoveToTop returns a copy of items with the channel id first and every
// other channel in its original relative order. Items is returned unchanged
// when id is absent or already first.
func MoveToTop(id string, items []Channel) []Channel {
	idx := indexOf(items, id)
	if idx <= 0 {
		return items
	}
	out := make([]Channel, 0, len(items))
	out = append(out, items[idx])
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	return out
}

// sortedPosition returns where c belongs in items under spec, scanning
// from the top for the first channel that sorts after it.
func sortedPosition(c Channel, items []Channel, spec SortSpec) int {
	for i, other := range items {
		if Compare(c, other, spec) < 0 {
			return i
		}
	}
	return len(items)
}

func indexOf(items []Channel, id string) int {
	return slices.IndexFunc(items, func(c Channel) bool { return c.ID == id })
}
