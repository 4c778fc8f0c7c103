package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
	"github.com/brickwise/brickwise-engine/pkg/catalog"
	"github.com/brickwise/brickwise-engine/pkg/logging"
	"github.com/brickwise/brickwise-engine/pkg/metrics"
	"github.com/brickwise/brickwise-engine/pkg/models"
)

// UnknownSetSize stands in for a kit that reports zero parts, so it never scores.
const UnknownSetSize = 9999

// BasicBricks are ubiquitous parts that appear in nearly every kit and make
// poor pivots.
var BasicBricks = map[string]bool{
	"3001": true, "3002": true, "3003": true, "3004": true, "3005": true,
	"3008": true, "3009": true, "3010": true, "3622": true,
	"3020": true, "3021": true, "3022": true, "3023": true, "3024": true,
	"3623": true, "3666": true, "3710": true,
	"3068b": true, "3069b": true, "3070b": true,
}

// SetCatalog is the catalog surface the matcher queries.
type SetCatalog interface {
	SetsContaining(ctx context.Context, partNum string, colorID int) ([]models.SetContainingPart, error)
	PartColors(ctx context.Context, partNum string) ([]models.PartColor, error)
}

// SetMatcherConfig tunes pivot selection, filtering and ranking.
type SetMatcherConfig struct {
	MaxPivots                int     // Stop after querying this many pivots
	MinCandidateSets         int     // Stop once this many distinct sets were found
	MinSetParts              int     // Kits below this part count are never returned
	MinScore                 float64 // Score floor
	SparseMinScore           float64 // Score floor for small inventories
	SparseInventoryThreshold int     // Inventories below this total quantity are sparse
	MaxResults               int     // Result cap
}

// DefaultSetMatcherConfig returns the default matcher tuning.
func DefaultSetMatcherConfig() SetMatcherConfig {
	return SetMatcherConfig{
		MaxPivots:                8,
		MinCandidateSets:         50,
		MinSetParts:              20,
		MinScore:                 10,
		SparseMinScore:           0,
		SparseInventoryThreshold: 10,
		MaxResults:               50,
	}
}

// MatchOptions are per-request overrides.
type MatchOptions struct {
	// MinMatchPercentage replaces the configured score floor when set.
	MinMatchPercentage *float64
	// MinConfidence drops owned parts whose classifier confidence is below it.
	// Parts without a confidence (added by hand) are kept.
	MinConfidence *int
}

// Pivot records one owned part used to query the catalog.
type Pivot struct {
	PartNum       string `json:"part_num"`
	ColorID       *int   `json:"color_id"`
	ColorInferred bool   `json:"color_inferred"`
	SetsFound     int    `json:"sets_found"`
	Error         string `json:"error,omitempty"`
}

// MatchResult is the ranked outcome of a matching request.
type MatchResult struct {
	Builds        []models.ScoredBuild `json:"suggested_builds"`
	Pivots        []Pivot              `json:"pivots"`
	OwnedQuantity int                  `json:"owned_quantity"`
	CandidateSets int                  `json:"candidate_sets"`
}

// SetMatcher ranks catalog kits against an owned inventory.
type SetMatcher interface {
	FindBuilds(ctx context.Context, owned []models.OwnedPart, opts MatchOptions) (*MatchResult, error)
}

type setMatcher struct {
	catalog SetCatalog
	config  SetMatcherConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSetMatcher creates a SetMatcher. Zero config fields take their defaults,
// except the score floors where zero is meaningful.
func NewSetMatcher(catalog SetCatalog, config SetMatcherConfig, m *metrics.Metrics, logger *zap.Logger) SetMatcher {
	defaults := DefaultSetMatcherConfig()
	if config.MaxPivots <= 0 {
		config.MaxPivots = defaults.MaxPivots
	}
	if config.MinCandidateSets <= 0 {
		config.MinCandidateSets = defaults.MinCandidateSets
	}
	if config.MaxResults <= 0 {
		config.MaxResults = defaults.MaxResults
	}
	return &setMatcher{
		catalog: catalog,
		config:  config,
		metrics: m,
		logger:  logger.Named("set-matcher"),
	}
}

var _ SetMatcher = (*setMatcher)(nil)

// FindBuilds queries the catalog for kits containing a few pivot parts, then
// scores and ranks every kit found.
func (s *setMatcher) FindBuilds(ctx context.Context, owned []models.OwnedPart, opts MatchOptions) (*MatchResult, error) {
	if len(owned) == 0 {
		return nil, apperrors.ErrNoParts
	}
	start := time.Now()

	inventory := filterByConfidence(owned, opts.MinConfidence)
	ownedTotal := TotalQuantity(inventory)

	candidates, pivots, err := s.collectCandidates(ctx, inventory)
	if err != nil {
		return nil, err
	}

	floor := s.config.MinScore
	if ownedTotal < s.config.SparseInventoryThreshold {
		floor = s.config.SparseMinScore
	}
	if opts.MinMatchPercentage != nil {
		floor = *opts.MinMatchPercentage
	}

	builds := make([]models.ScoredBuild, 0, len(candidates))
	for _, c := range candidates {
		if c.NumParts < s.config.MinSetParts {
			continue
		}
		build := models.ScoredBuild{
			CandidateSet:  *c,
			MatchScore:    CoverageScore(ownedTotal, c.NumParts),
			OverlapScore:  CoverageScore(c.TotalMatchedQuantity, c.NumParts),
			OwnedQuantity: ownedTotal,
		}
		if build.MatchScore < floor {
			continue
		}
		builds = append(builds, build)
	}

	sort.Slice(builds, func(i, j int) bool {
		a, b := builds[i], builds[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.TotalMatchedQuantity != b.TotalMatchedQuantity {
			return a.TotalMatchedQuantity > b.TotalMatchedQuantity
		}
		return a.SetID < b.SetID
	})
	if len(builds) > s.config.MaxResults {
		builds = builds[:s.config.MaxResults]
	}

	s.metrics.RecordMatch(len(builds), len(pivots))
	s.logger.Info("Builds matched",
		zap.Int("owned_parts", len(inventory)),
		zap.Int("owned_quantity", ownedTotal),
		zap.Int("pivots", len(pivots)),
		zap.Int("candidate_sets", len(candidates)),
		zap.Int("builds", len(builds)),
		zap.Float64("score_floor", floor),
		zap.Duration("elapsed", time.Since(start)))

	return &MatchResult{
		Builds:        builds,
		Pivots:        pivots,
		OwnedQuantity: ownedTotal,
		CandidateSets: len(candidates),
	}, nil
}

// collectCandidates queries pivots one at a time until either budget is met.
// A failing pivot is recorded and skipped.
func (s *setMatcher) collectCandidates(ctx context.Context, inventory []models.OwnedPart) (map[string]*models.CandidateSet, []Pivot, error) {
	candidates := make(map[string]*models.CandidateSet)
	pivots := make([]Pivot, 0, s.config.MaxPivots)
	queried := make(map[models.PartKey]bool)

	for _, part := range SelectPivotCandidates(inventory) {
		if len(pivots) >= s.config.MaxPivots || len(candidates) >= s.config.MinCandidateSets {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if queried[part.Key()] {
			continue
		}
		queried[part.Key()] = true

		pivot := Pivot{PartNum: *part.PartNum, ColorID: part.ColorID}
		if pivot.ColorID == nil {
			colorID, err := s.inferColor(ctx, pivot.PartNum)
			if err != nil {
				s.logger.Warn("Skipping pivot with unknown color",
					zap.String("part_num", pivot.PartNum),
					zap.String("error", logging.SanitizeError(err)))
				continue
			}
			pivot.ColorID = &colorID
			pivot.ColorInferred = true
		}

		sets, err := s.catalog.SetsContaining(ctx, pivot.PartNum, *pivot.ColorID)
		if err != nil {
			s.logger.Warn("Pivot lookup failed",
				zap.String("part_num", pivot.PartNum),
				zap.Int("color_id", *pivot.ColorID),
				zap.String("error", logging.SanitizeError(err)))
			pivot.Error = logging.SanitizeError(err)
			pivots = append(pivots, pivot)
			continue
		}

		pivot.SetsFound = len(sets)
		pivots = append(pivots, pivot)
		addCandidates(candidates, part, *pivot.ColorID, sets)
	}

	return candidates, pivots, nil
}

// inferColor picks the color the part appears in across the most kits.
func (s *setMatcher) inferColor(ctx context.Context, partNum string) (int, error) {
	partColors, err := s.catalog.PartColors(ctx, partNum)
	if err != nil {
		return 0, err
	}
	if len(partColors) == 0 {
		return 0, fmt.Errorf("part %s has no catalog colors: %w", partNum, apperrors.ErrNotFound)
	}
	sorted := make([]models.PartColor, len(partColors))
	copy(sorted, partColors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NumSets > sorted[j].NumSets
	})
	return sorted[0].ColorID, nil
}

func addCandidates(candidates map[string]*models.CandidateSet, part models.OwnedPart, colorID int, sets []models.SetContainingPart) {
	for _, set := range sets {
		c, ok := candidates[set.SetNum]
		if !ok {
			numParts := set.NumParts
			if numParts <= 0 {
				numParts = UnknownSetSize
			}
			setURL := set.SetURL
			if setURL == "" {
				setURL = catalog.SetURL(set.SetNum)
			}
			c = &models.CandidateSet{
				SetID:        set.SetNum,
				Name:         set.Name,
				NumParts:     numParts,
				SetImageURL:  set.SetImgURL,
				SetURL:       setURL,
				Year:         set.Year,
				MatchedParts: []models.MatchedPart{},
			}
			candidates[set.SetNum] = c
		}

		setQty := set.QuantityInSet
		if setQty <= 0 {
			setQty = 1
		}
		match := models.MatchedPart{
			PartNum:       *part.PartNum,
			PartName:      part.Name,
			ColorID:       colorID,
			OwnedQuantity: part.EffectiveQuantity(),
			SetQuantity:   setQty,
			ImageURL:      part.ImageURL,
		}
		c.MatchedParts = append(c.MatchedParts, match)
		c.TotalMatchedQuantity += min(match.OwnedQuantity, match.SetQuantity)
	}
}

// SelectPivotCandidates returns the identified parts in pivot preference
// order: parts outside BasicBricks first, in inventory order. When every
// identified part is a basic brick, the whole identified inventory is used.
func SelectPivotCandidates(inventory []models.OwnedPart) []models.OwnedPart {
	var preferred, all []models.OwnedPart
	for _, p := range inventory {
		if p.PartNum == nil || *p.PartNum == "" {
			continue
		}
		all = append(all, p)
		if !BasicBricks[*p.PartNum] {
			preferred = append(preferred, p)
		}
	}
	if len(preferred) > 0 {
		return preferred
	}
	return all
}

// CoverageScore returns min(1, owned/setParts) * 100 rounded to two decimals.
func CoverageScore(owned, setParts int) float64 {
	if setParts <= 0 {
		return 0
	}
	ratio := math.Min(1, float64(owned)/float64(setParts))
	return math.Round(ratio*100*100) / 100
}

func filterByConfidence(parts []models.OwnedPart, minConfidence *int) []models.OwnedPart {
	if minConfidence == nil {
		return parts
	}
	filtered := make([]models.OwnedPart, 0, len(parts))
	for _, p := range parts {
		if p.Confidence != nil && *p.Confidence < *minConfidence {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
