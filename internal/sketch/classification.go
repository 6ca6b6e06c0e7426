package sketch

import (
	"math"

	"github.com/banshee-data/drawin/internal/monitoring"
)

// Cascade thresholds. These are empirical values tuned against hand-drawn
// strokes on a 500x500 surface; every one of them shifts category
// boundaries, so they are deliberately not configurable.
const (
	SunCircularityMax  = 15.0
	SunAspectMin       = 0.7
	SunAspectMax       = 1.3
	CarCircularityMax  = 20.0
	CarAspectMin       = 1.5
	TreeCircularityMax = 20.0
	TreeAspectMax      = 0.7

	// Minimum stroke lengths for the outline predicates.
	ShapeMinPoints   = 10 // house, star, heart, fish
	BalloonMinPoints = 5

	RightAngleMin       = 70.0 // degrees, exclusive
	RightAngleMax       = 110.0
	HouseMinRightAngles = 2

	StarSharpAngleMax = 60.0
	StarMinSharpTurns = 5

	HeartMirrorTolerance   = 20.0 // surface units, both axes
	HeartSymmetricFraction = 0.6

	BalloonMinUpperPoints      = 3
	BalloonUpperCircularityMax = 25.0

	FishSharpAngleMax = 45.0
	FishMinSharpTurns = 1
	FishMaxSharpTurns = 3
)

// ModelVersion identifies the rule set in stored results.
const ModelVersion = "rule-cascade-v1.0"

// Rule names, reported in results and traces.
const (
	RuleRoundBlob      = "round-blob"
	RuleWideBlob       = "wide-blob"
	RuleTallBlob       = "tall-blob"
	RuleRightAngles    = "right-angles"
	RuleSharpPoints    = "sharp-points"
	RuleMirrorSymmetry = "mirror-symmetry"
	RuleRoundTop       = "round-top"
	RuleTail           = "tail"
)

// ClassificationResult holds the outcome of classifying one stroke.
type ClassificationResult struct {
	Category   Category
	Rule       string // rule that fired; empty when Unclassified
	Model      string
	PointCount int
	Trace      []RuleOutcome
	Features   FeatureSet
}

// RuleOutcome records one evaluated step of the cascade.
type RuleOutcome struct {
	Rule     string   `json:"rule"`
	Category Category `json:"category"`
	Matched  bool     `json:"matched"`
}

type rule struct {
	name     string
	category Category
	match    func(f FeatureSet, n int) bool
}

// ShapeClassifier evaluates an ordered cascade of predicates over a
// FeatureSet. The first matching rule wins; order matters because the
// predicates overlap.
type ShapeClassifier struct {
	ModelVersion string
	rules        []rule
}

// NewShapeClassifier creates a classifier with the standard cascade.
func NewShapeClassifier() *ShapeClassifier {
	return &ShapeClassifier{
		ModelVersion: ModelVersion,
		rules: []rule{
			{RuleRoundBlob, Sun, isRoundBlob},
			{RuleWideBlob, Car, isWideBlob},
			{RuleTallBlob, Tree, isTallBlob},
			{RuleRightAngles, House, isHouseShape},
			{RuleSharpPoints, Star, isStarShape},
			{RuleMirrorSymmetry, Heart, isHeartShape},
			{RuleRoundTop, Balloon, isBalloonShape},
			{RuleTail, Fish, isFishShape},
		},
	}
}

// Classify returns the category of the first matching rule, or Unclassified.
// pointCount is the length of the stroke the features were extracted from.
func (sc *ShapeClassifier) Classify(f FeatureSet, pointCount int) Category {
	for _, r := range sc.rules {
		if r.match(f, pointCount) {
			return r.category
		}
	}
	return Unclassified
}

// Evaluate runs the cascade like Classify and also reports which rules were
// evaluated. Rules after the winning one are not evaluated.
func (sc *ShapeClassifier) Evaluate(f FeatureSet, pointCount int) ClassificationResult {
	result := ClassificationResult{
		Model:      sc.ModelVersion,
		PointCount: pointCount,
		Features:   f,
		Trace:      make([]RuleOutcome, 0, len(sc.rules)),
	}
	for _, r := range sc.rules {
		matched := r.match(f, pointCount)
		result.Trace = append(result.Trace, RuleOutcome{Rule: r.name, Category: r.category, Matched: matched})
		if matched {
			result.Category = r.category
			result.Rule = r.name
			return result
		}
	}
	return result
}

// ClassifyStroke extracts features from stroke and evaluates the cascade.
// Strokes shorter than MinStrokePoints return ErrInsufficientData.
func (sc *ShapeClassifier) ClassifyStroke(stroke Stroke) (ClassificationResult, error) {
	f, err := ExtractFeatures(stroke)
	if err != nil {
		return ClassificationResult{Model: sc.ModelVersion, PointCount: len(stroke)}, err
	}
	result := sc.Evaluate(f, len(stroke))
	monitoring.Diagf("classified stroke of %d points as %s (rule=%q circularity=%.2f aspect=%.2f)",
		len(stroke), result.Category, result.Rule, f.Circularity, f.AspectRatio)
	return result, nil
}

func isRoundBlob(f FeatureSet, _ int) bool {
	return f.Circularity < SunCircularityMax &&
		f.AspectRatio > SunAspectMin && f.AspectRatio < SunAspectMax
}

func isWideBlob(f FeatureSet, _ int) bool {
	return f.Circularity < CarCircularityMax && f.AspectRatio > CarAspectMin
}

func isTallBlob(f FeatureSet, _ int) bool {
	return f.Circularity < TreeCircularityMax && f.AspectRatio < TreeAspectMax
}

// isHouseShape looks for at least two roughly right-angled corners.
func isHouseShape(f FeatureSet, n int) bool {
	if n < ShapeMinPoints {
		return false
	}
	corners := countAngles(f.Angles, func(a float64) bool {
		return a > RightAngleMin && a < RightAngleMax
	})
	return corners >= HouseMinRightAngles
}

// isStarShape looks for many sharp points.
func isStarShape(f FeatureSet, n int) bool {
	if n < ShapeMinPoints {
		return false
	}
	sharp := countAngles(f.Angles, func(a float64) bool { return a < StarSharpAngleMax })
	return sharp >= StarMinSharpTurns
}

// isHeartShape tests approximate left-right symmetry: each point is mirrored
// across the centroid's x and counts as symmetric when any stroke point,
// itself included, lies within the tolerance of the mirror image. O(n^2).
func isHeartShape(f FeatureSet, n int) bool {
	if n < ShapeMinPoints || len(f.Points) == 0 {
		return false
	}
	cx := f.Centroid.X
	symmetric := 0
	for _, p := range f.Points {
		mirroredX := 2*cx - p.X
		for _, q := range f.Points {
			if math.Abs(q.X-mirroredX) < HeartMirrorTolerance && math.Abs(q.Y-p.Y) < HeartMirrorTolerance {
				symmetric++
				break
			}
		}
	}
	return float64(symmetric)/float64(len(f.Points)) > HeartSymmetricFraction
}

// isBalloonShape checks that the part of the stroke above the mean y (the
// envelope) is round on its own.
func isBalloonShape(f FeatureSet, n int) bool {
	if n < BalloonMinPoints || len(f.Points) == 0 {
		return false
	}
	upper := make(Stroke, 0, len(f.Points))
	for _, p := range f.Points {
		if p.Y < f.Centroid.Y {
			upper = append(upper, p)
		}
	}
	if len(upper) < BalloonMinUpperPoints {
		return false
	}
	_, _, circularity := radialSpread(upper)
	return circularity < BalloonUpperCircularityMax
}

// isFishShape looks for one to a few sharp turns, e.g. a tail.
func isFishShape(f FeatureSet, n int) bool {
	if n < ShapeMinPoints {
		return false
	}
	sharp := countAngles(f.Angles, func(a float64) bool { return a < FishSharpAngleMax })
	return sharp >= FishMinSharpTurns && sharp <= FishMaxSharpTurns
}
