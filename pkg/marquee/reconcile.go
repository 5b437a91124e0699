package marquee

// Intersecting returns the ids of all items whose geometry overlaps rect,
// preserving provider order (so the last returned id is the topmost item).
// Items without an id are skipped. A degenerate rect selects nothing, even
// when it sits inside an item.
func Intersecting(rect Rect, items []Item) []string {
	if rect.Empty() {
		return nil
	}

	var ids []string
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if rect.Overlaps(it.Rect) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
