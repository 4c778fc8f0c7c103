package services

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwise/brickwise-engine/pkg/models"
)

func owned(partNum string, colorID, qty int) models.OwnedPart {
	return models.OwnedPart{PartNum: models.StringPtr(partNum), ColorID: models.IntPtr(colorID), Quantity: qty}
}

// quantities flattens an inventory into a key -> quantity map for order-insensitive comparison.
func quantities(parts []models.OwnedPart) map[models.PartKey]int {
	out := make(map[models.PartKey]int, len(parts))
	for _, p := range parts {
		out[p.Key()] += p.Quantity
	}
	return out
}

func TestMergeParts_SumsByKey(t *testing.T) {
	current := []models.OwnedPart{owned("3001", 4, 2), owned("3003", 1, 1)}
	incoming := []models.OwnedPart{owned("3001", 4, 3), owned("3001", 1, 1)}

	merged := MergeParts(current, incoming)

	require.Len(t, merged, 3)
	assert.Equal(t, map[models.PartKey]int{
		owned("3001", 4, 0).Key(): 5,
		owned("3003", 1, 0).Key(): 1,
		owned("3001", 1, 0).Key(): 1,
	}, quantities(merged))
	assert.Equal(t, 2, current[0].Quantity, "inputs are not modified")
}

func TestMergeParts_IsCommutativeAndAssociative(t *testing.T) {
	a := []models.OwnedPart{owned("3001", 4, 2), owned("3039", 15, 1)}
	b := []models.OwnedPart{owned("3039", 15, 4), owned("3001", 1, 1)}
	c := []models.OwnedPart{owned("3001", 4, 1), {PartNum: nil, ColorID: nil, Quantity: 2}}

	ab := quantities(MergeParts(a, b))
	ba := quantities(MergeParts(b, a))
	assert.Equal(t, ab, ba)

	left := quantities(MergeParts(MergeParts(a, b), c))
	right := quantities(MergeParts(a, MergeParts(b, c)))
	assert.Equal(t, left, right)
}

func TestMergeParts_NilKeyComponents(t *testing.T) {
	incoming := []models.OwnedPart{
		{Name: "mystery", Quantity: 1},
		{Name: "", Quantity: 1},
		{PartNum: models.StringPtr("3001"), Quantity: 1},
		{PartNum: models.StringPtr("3001"), Quantity: 2},
		owned("3001", 0, 1),
	}

	merged := MergeParts(nil, incoming)

	require.Len(t, merged, 3)
	assert.Nil(t, merged[0].PartNum)
	assert.Equal(t, 2, merged[0].Quantity)
	assert.Equal(t, "mystery", merged[0].Name)
	assert.Nil(t, merged[1].ColorID)
	assert.Equal(t, 3, merged[1].Quantity)
	require.NotNil(t, merged[2].ColorID, "color 0 is distinct from no color")
	assert.Equal(t, 1, merged[2].Quantity)
}

func TestMergeParts_DefaultsQuantity(t *testing.T) {
	merged := MergeParts(nil, []models.OwnedPart{owned("3001", 4, 0), owned("3001", 4, -3)})

	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].Quantity)
}

func TestMergeParts_KeepsBestMetadata(t *testing.T) {
	first := owned("3001", 4, 1)
	first.Confidence = models.IntPtr(60)

	second := owned("3001", 4, 1)
	second.Name = "Brick 2 x 4"
	second.ImageURL = models.StringPtr("https://img/3001.png")
	second.Confidence = models.IntPtr(92)

	third := owned("3001", 4, 1)
	third.Name = "ignored"
	third.Confidence = models.IntPtr(75)

	merged := MergeParts([]models.OwnedPart{first}, []models.OwnedPart{second, third})

	require.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].Quantity)
	assert.Equal(t, "Brick 2 x 4", merged[0].Name)
	require.NotNil(t, merged[0].ImageURL)
	assert.Equal(t, "https://img/3001.png", *merged[0].ImageURL)
	require.NotNil(t, merged[0].Confidence)
	assert.Equal(t, 92, *merged[0].Confidence)
}

func TestOwnedPartsFromVerified(t *testing.T) {
	parts := []models.VerifiedPart{
		{PartNum: models.StringPtr("3001"), ColorID: models.IntPtr(4), Name: "Brick 2 x 4", Quantity: 1, ConfidenceScore: 88, Source: models.SourceTagVerified},
		{Name: "blob", Quantity: 1, Source: models.SourceTagNoBoundingBox},
	}

	identified := OwnedPartsFromVerified(parts, false)
	require.Len(t, identified, 1)
	assert.Equal(t, "3001", *identified[0].PartNum)
	require.NotNil(t, identified[0].Confidence)
	assert.Equal(t, 88, *identified[0].Confidence)

	all := OwnedPartsFromVerified(parts, true)
	require.Len(t, all, 2)
	assert.Nil(t, all[1].PartNum)
	assert.Nil(t, all[1].Confidence)
}

func TestInventory_ConcurrentMerges(t *testing.T) {
	inv := NewInventory([]models.OwnedPart{owned("3001", 4, 1)})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv.Merge([]models.OwnedPart{owned("3001", 4, 1), owned("3039", 15, 2)})
		}()
	}
	wg.Wait()

	parts := inv.Parts()
	sort.Slice(parts, func(i, j int) bool { return *parts[i].PartNum < *parts[j].PartNum })
	require.Len(t, parts, 2)
	assert.Equal(t, 21, parts[0].Quantity)
	assert.Equal(t, 40, parts[1].Quantity)
	assert.Equal(t, 61, inv.TotalQuantity())
}
