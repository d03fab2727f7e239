// Package quota distributes scarce contact-search credits across
// companies that still need recruiter discovery.
package quota

// Distribute computes a fair per-company contact cap for one discovery
// cycle. It returns n non-negative integers summing to
// min(remaining, n*perCompanyCap).
//
// The split is maximally even: every company gets remaining/n, and the
// leftover goes to the front of the list one credit at a time. Callers
// order companies by priority (oldest pending application first), so
// position decides who gets the extra credit. When the even share
// already meets the cap, every company gets exactly the cap and the
// excess quota is deliberately left unspent.
func Distribute(remaining, n, perCompanyCap int) []int {
	if n <= 0 {
		return []int{}
	}

	counts := make([]int, n)
	if remaining <= 0 {
		return counts
	}

	base := remaining / n
	extra := remaining % n

	if base >= perCompanyCap {
		for i := range counts {
			counts[i] = perCompanyCap
		}
		return counts
	}

	for i := range counts {
		if i < extra && base+1 <= perCompanyCap {
			counts[i] = base + 1
		} else {
			counts[i] = base
		}
	}
	return counts
}
