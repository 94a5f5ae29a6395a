package knowledge

// PageItem is one slot of the page switcher: a page number or a gap.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// collapseAbove is the page count beyond which the switcher elides pages.
const collapseAbove = 7

// PageItems lays out the switcher for current of total pages. Up to seven
// pages are listed in full; beyond that only the first, the last and the
// neighbours of current are kept, with a gap wherever pages were skipped.
func PageItems(current, total int) []PageItem {
	if total < 1 {
		return nil
	}
	current = clampPage(current, total)

	var pages []int
	if total <= collapseAbove {
		for p := 1; p <= total; p++ {
			pages = append(pages, p)
		}
	} else {
		pages = append(pages, 1)
		for p := current - 1; p <= current+1; p++ {
			if p > 1 && p < total {
				pages = append(pages, p)
			}
		}
		pages = append(pages, total)
	}

	items := make([]PageItem, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		if prev != 0 && p-prev > 1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Page: p, Current: p == current})
		prev = p
	}
	return items
}
