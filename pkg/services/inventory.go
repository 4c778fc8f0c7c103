package services

import (
	"sync"

	"github.com/brickwise/brickwise-engine/pkg/models"
)

// MergeParts merges incoming parts into an owned inventory keyed by
// (part number, color). Nil part numbers and nil colors are valid key
// components, so unidentified parts sharing a nil key collapse into one entry;
// filter them out first if that is not wanted.
//
// Quantities are summed, so merging is commutative and associative over
// multisets of parts. Neither input is modified.
func MergeParts(owned []models.OwnedPart, incoming []models.OwnedPart) []models.OwnedPart {
	merged := make([]models.OwnedPart, 0, len(owned)+len(incoming))
	index := make(map[models.PartKey]int, len(owned)+len(incoming))

	add := func(p models.OwnedPart) {
		key := p.Key()
		i, ok := index[key]
		if !ok {
			p.Quantity = p.EffectiveQuantity()
			index[key] = len(merged)
			merged = append(merged, p)
			return
		}

		existing := &merged[i]
		existing.Quantity += p.EffectiveQuantity()
		if existing.Name == "" {
			existing.Name = p.Name
		}
		if existing.ImageURL == nil && p.ImageURL != nil {
			existing.ImageURL = p.ImageURL
		}
		existing.Confidence = maxConfidence(existing.Confidence, p.Confidence)
	}

	for _, p := range owned {
		add(p)
	}
	for _, p := range incoming {
		add(p)
	}
	return merged
}

// OwnedPartsFromVerified converts verified parts into inventory entries.
// Parts without a part number are dropped unless includeUnidentified is set.
func OwnedPartsFromVerified(parts []models.VerifiedPart, includeUnidentified bool) []models.OwnedPart {
	owned := make([]models.OwnedPart, 0, len(parts))
	for _, p := range parts {
		if !p.IsIdentified() && !includeUnidentified {
			continue
		}
		var confidence *int
		if p.IsIdentified() {
			c := p.ConfidenceScore
			confidence = &c
		}
		owned = append(owned, models.OwnedPart{
			PartNum:    p.PartNum,
			ColorID:    p.ColorID,
			Name:       p.Name,
			ImageURL:   p.ImageURL,
			Quantity:   p.Quantity,
			Confidence: confidence,
		})
	}
	return owned
}

// TotalQuantity sums the effective quantity of every part.
func TotalQuantity(parts []models.OwnedPart) int {
	total := 0
	for i := range parts {
		total += parts[i].EffectiveQuantity()
	}
	return total
}

func maxConfidence(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

// Inventory is a running owned-parts inventory safe for concurrent use.
// Merges against one Inventory are serialized.
type Inventory struct {
	mu    sync.Mutex
	parts []models.OwnedPart
}

// NewInventory creates an inventory seeded with initial parts.
func NewInventory(initial []models.OwnedPart) *Inventory {
	return &Inventory{parts: MergeParts(nil, initial)}
}

// Merge adds parts and returns a snapshot of the resulting inventory.
func (inv *Inventory) Merge(incoming []models.OwnedPart) []models.OwnedPart {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.parts = MergeParts(inv.parts, incoming)
	return inv.snapshot()
}

// Parts returns a snapshot of the inventory.
func (inv *Inventory) Parts() []models.OwnedPart {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.snapshot()
}

// TotalQuantity returns the total number of owned pieces.
func (inv *Inventory) TotalQuantity() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return TotalQuantity(inv.parts)
}

func (inv *Inventory) snapshot() []models.OwnedPart {
	out := make([]models.OwnedPart, len(inv.parts))
	copy(out, inv.parts)
	return out
}
