package tree

import "github.com/mcncl/jsontree/internal/models"

// CountNodes returns how many render nodes v produces: one for v itself plus
// the count of every member, recursively.
func CountNodes(v models.Value) int {
	count := 1
	switch v.Kind() {
	case models.Object:
		for _, m := range v.Members() {
			count += CountNodes(m.Value)
		}
	case models.Array:
		for _, item := range v.Items() {
			count += CountNodes(item)
		}
	}
	return count
}
