package billing

import (
	"strings"

	"github.com/sinkandika/fyzy-web/internal/models"
)

// DedupeCustomersByEmail collapses per-invoice customer documents into a
// distinct list keyed by trimmed, lowercased email. The first occurrence
// wins. Blank emails all share the empty key, so only the first
// customer without an email survives.
func DedupeCustomersByEmail(customers []models.Customer) []models.Customer {
	seen := make(map[string]bool, len(customers))
	out := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		key := strings.ToLower(strings.TrimSpace(c.Email))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
