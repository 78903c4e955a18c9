package aggregator

import "github.com/deusflow/newsboard/internal/news"

// SourceItems is one source's items in fetch order.
type SourceItems struct {
	SourceID string
	Items    []news.Item
}

// Interleave merges the lists round-robin in the order given: each pass
// takes the next unconsumed item of every list that still has one.
func Interleave(lists []SourceItems) []news.Item {
	total := 0
	longest := 0
	for _, l := range lists {
		total += len(l.Items)
		longest = max(longest, len(l.Items))
	}

	out := make([]news.Item, 0, total)
	for i := 0; i < longest; i++ {
		for _, l := range lists {
			if i < len(l.Items) {
				out = append(out, l.Items[i])
			}
		}
	}
	return out
}
