package sketch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/testutil"
)

func TestNewShapeClassifier(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	require.NotNil(t, sc)
	assert.Equal(t, sketch.ModelVersion, sc.ModelVersion)
}

func TestClassifyStroke_Fixtures(t *testing.T) {
	sc := sketch.NewShapeClassifier()

	tests := []struct {
		name   string
		stroke sketch.Stroke
		want   sketch.Category
		rule   string
	}{
		{"circle", testutil.SunStroke(), sketch.Sun, sketch.RuleRoundBlob},
		{"wide ellipse", testutil.CarStroke(), sketch.Car, sketch.RuleWideBlob},
		{"tall ellipse", testutil.TreeStroke(), sketch.Tree, sketch.RuleTallBlob},
		{"l shape", testutil.HouseStroke(), sketch.House, sketch.RuleRightAngles},
		{"zigzag", testutil.StarStroke(), sketch.Star, sketch.RuleSharpPoints},
		{"heart curve", testutil.HeartStroke(), sketch.Heart, sketch.RuleMirrorSymmetry},
		{"loop on a string", testutil.BalloonStroke(), sketch.Balloon, sketch.RuleRoundTop},
		{"body and tail", testutil.FishStroke(), sketch.Fish, sketch.RuleTail},
		{"short line", testutil.LineStroke(), sketch.Unclassified, ""},
		{"fat star", testutil.Star(250, 250, 80, 40), sketch.Star, sketch.RuleSharpPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := sc.ClassifyStroke(tt.stroke)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Category)
			assert.Equal(t, tt.rule, result.Rule)
			assert.Equal(t, len(tt.stroke), result.PointCount)
			assert.Equal(t, sketch.ModelVersion, result.Model)
		})
	}
}

func TestClassifyStroke_InsufficientData(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	stroke := sketch.Stroke{{X: 10, Y: 10}, {X: 20, Y: 20}}

	result, err := sc.ClassifyStroke(stroke)
	assert.ErrorIs(t, err, sketch.ErrInsufficientData)
	assert.Equal(t, sketch.Unclassified, result.Category)
	assert.Equal(t, 2, result.PointCount)
}

func TestClassify_WideBlobByFeatures(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	f := sketch.FeatureSet{AspectRatio: 2.0, Circularity: 18}

	assert.Equal(t, sketch.Car, sc.Classify(f, 36))
}

func TestClassify_NarrowStar(t *testing.T) {
	// The inner vertices of a thin star are close to right angles, so the
	// corner rule fires before the sharp point rule.
	stroke := testutil.Star(250, 250, 80, 30)
	f, err := sketch.ExtractFeatures(stroke)
	require.NoError(t, err)

	sharp := 0
	for _, a := range f.Angles {
		if a < sketch.StarSharpAngleMax {
			sharp++
		}
	}
	assert.GreaterOrEqual(t, sharp, 5)

	result := sketch.NewShapeClassifier().Evaluate(f, len(stroke))
	assert.Equal(t, sketch.House, result.Category)
	assert.Equal(t, sketch.RuleRightAngles, result.Rule)
}

func TestClassify_CascadeOrder(t *testing.T) {
	sc := sketch.NewShapeClassifier()

	// round, square and with two right-angled corners: the round blob rule
	// is earlier and wins
	f := sketch.FeatureSet{
		AspectRatio: 1.0,
		Circularity: 10,
		Angles:      []float64{90, 90, 180, 180, 180, 180, 180, 180, 180, 180},
	}
	assert.Equal(t, sketch.Sun, sc.Classify(f, 12))

	// the same outline without the round blob is a house
	f.Circularity = 30
	assert.Equal(t, sketch.House, sc.Classify(f, 12))

	// corners and sharp points together: the corner rule is earlier
	f.Angles = []float64{90, 90, 10, 10, 10, 10, 10, 180, 180, 180}
	assert.Equal(t, sketch.House, sc.Classify(f, 12))

	// too few points for any outline rule
	assert.Equal(t, sketch.Unclassified, sc.Classify(f, 9))
}

func TestClassify_FishBounds(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	base := sketch.FeatureSet{AspectRatio: 1.0, Circularity: 50}

	tests := []struct {
		angles []float64
		want   sketch.Category
	}{
		{[]float64{180, 180, 180}, sketch.Unclassified},
		{[]float64{30, 180, 180}, sketch.Fish},
		{[]float64{30, 30, 30}, sketch.Fish},
		{[]float64{30, 30, 30, 30}, sketch.Unclassified},
		{[]float64{44.9, 45, 180}, sketch.Fish},
	}
	for _, tt := range tests {
		f := base
		f.Angles = tt.angles
		assert.Equal(t, tt.want, sc.Classify(f, 12), "angles %v", tt.angles)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	f, err := sketch.ExtractFeatures(testutil.HeartStroke())
	require.NoError(t, err)

	first := sc.Evaluate(f, 60)
	for i := 0; i < 5; i++ {
		again := sc.Evaluate(f, 60)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("Evaluate changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestEvaluate_Trace(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	f, err := sketch.ExtractFeatures(testutil.StarStroke())
	require.NoError(t, err)

	result := sc.Evaluate(f, len(f.Points))
	want := []sketch.RuleOutcome{
		{Rule: sketch.RuleRoundBlob, Category: sketch.Sun},
		{Rule: sketch.RuleWideBlob, Category: sketch.Car},
		{Rule: sketch.RuleTallBlob, Category: sketch.Tree},
		{Rule: sketch.RuleRightAngles, Category: sketch.House},
		{Rule: sketch.RuleSharpPoints, Category: sketch.Star, Matched: true},
	}
	if diff := cmp.Diff(want, result.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_UnclassifiedTraceIsComplete(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	f, err := sketch.ExtractFeatures(testutil.LineStroke())
	require.NoError(t, err)

	result := sc.Evaluate(f, 3)
	assert.Equal(t, sketch.Unclassified, result.Category)
	assert.Empty(t, result.Rule)
	assert.Len(t, result.Trace, 8)
	for _, o := range result.Trace {
		assert.False(t, o.Matched, o.Rule)
	}
}

func TestClassify_PointsRequiredForShapeRules(t *testing.T) {
	sc := sketch.NewShapeClassifier()

	// no raw points: symmetry and round-top rules cannot fire
	f := sketch.FeatureSet{AspectRatio: 1.0, Circularity: 50, Angles: []float64{180}}
	assert.Equal(t, sketch.Unclassified, sc.Classify(f, 20))
}
