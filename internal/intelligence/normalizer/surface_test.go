package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSurface(t *testing.T) {
	cases := map[string]string{
		"  Zoloft  ":                "zoloft",
		"Alzheimer’s Disease":       "alzheimer's disease",
		"SSRI-induced   nausea!":    "ssri induced nausea",
		"5-HT(2A) antagonist":       "5 ht 2a antagonist",
		"":                          "",
		" \t\n ":                    "",
		"!!!":                       "",
		"patient's ‘quoted’ remark": "patient's 'quoted' remark",
	}
	for in, want := range cases {
		assert.Equal(t, want, Surface(in), "input %q", in)
	}
}

func TestSurface_Idempotent(t *testing.T) {
	inputs := []string{"Zoloft", "  Major  Depressive-Disorder ", "Alzheimer’s", "ＺＯＬＯＦＴ", "ﬁbromyalgia", "ÄÖÜ x"}
	for _, in := range inputs {
		once := Surface(in)
		assert.Equal(t, once, Surface(once))
		folded := SurfaceFolded(in)
		assert.Equal(t, folded, SurfaceFolded(folded))
	}
}

func TestSurfaceFolded(t *testing.T) {
	assert.Equal(t, "zoloft", SurfaceFolded("ＺＯＬＯＦＴ"))
	assert.Equal(t, "", Surface("ＺＯＬＯＦＴ"))
	assert.Equal(t, "fibromyalgia", SurfaceFolded("ﬁbromyalgia"))
	assert.Equal(t, "bromyalgia", Surface("ﬁbromyalgia"))
}

func TestNewSurfaceFunc(t *testing.T) {
	assert.Equal(t, "zoloft", NewSurfaceFunc(true)("ＺＯＬＯＦＴ"))
	assert.Equal(t, "", NewSurfaceFunc(false)("ＺＯＬＯＦＴ"))
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 18.0/19.0, Ratio("sertralin", "sertraline"), 1e-9)
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.Equal(t, 1.0, Ratio("zoloft", "zoloft"))
}

func TestScorer_PrunesBelowFloor(t *testing.T) {
	sc := newScorer("sertralin")
	assert.Equal(t, -1.0, sc.score("a", 0.86))
	assert.InDelta(t, 18.0/19.0, sc.score("sertraline", 0.86), 1e-9)
}

//Personal.AI order the ending
