package browser

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"

	"zest/internal/spoonacular"
)

// Derive narrows a fetched page to what the visitor sees: titles containing
// query (case-insensitive), then only liked ids when likedOnly is set.
// Order is the order the API returned.
func Derive(results []spoonacular.Summary, query string, likedOnly bool, liked []int) []spoonacular.Summary {
	fold := cases.Fold()
	needle := fold.String(query)

	shown := lo.Filter(results, func(r spoonacular.Summary, _ int) bool {
		return strings.Contains(fold.String(r.Title), needle)
	})
	if likedOnly {
		shown = lo.Filter(shown, func(r spoonacular.Summary, _ int) bool {
			return slices.Contains(liked, r.ID)
		})
	}
	return shown
}
