package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Brand
		err   bool
	}{
		{"intel", BrandIntel, false},
		{"INTEL", BrandIntel, false},
		{" amd ", BrandAMD, false},
		{"arm", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBrand(tt.input)
		if tt.err {
			assert.Error(t, err, "input: %q", tt.input)
			continue
		}
		require.NoError(t, err, "input: %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ScopeIntel, ParseScope("intel"))
	assert.Equal(t, ScopeAMD, ParseScope("AMD"))
	assert.Equal(t, ScopeAll, ParseScope("all"))
	assert.Equal(t, ScopeAll, ParseScope(""))
	assert.Equal(t, ScopeAll, ParseScope("arm"))
}

func TestScopeIncludes(t *testing.T) {
	t.Parallel()

	assert.True(t, ScopeIntel.Includes(BrandIntel))
	assert.False(t, ScopeIntel.Includes(BrandAMD))
	assert.True(t, ScopeAMD.Includes(BrandAMD))
	assert.False(t, ScopeAMD.Includes(BrandIntel))
	assert.True(t, ScopeAll.Includes(BrandIntel))
	assert.True(t, ScopeAll.Includes(BrandAMD))
	assert.False(t, Scope("bogus").Includes(BrandAMD))
}

func TestProcessorKeyAndDescribe(t *testing.T) {
	t.Parallel()

	p := Processor{Brand: BrandIntel, Family: "Core i5", Generation: "4", Model: "i5-4670K"}
	assert.Equal(t, "INTEL|i5-4670K", p.Key())
	assert.Equal(t, KeyFor(BrandIntel, "i5-4670K"), p.Key())
	assert.Equal(t, "INTEL • Core i5 • Gen 4 • i5-4670K", p.Describe())
}

func TestUniqueByKey(t *testing.T) {
	t.Parallel()

	rows := []Processor{
		{Brand: BrandIntel, Family: "Core i5", Generation: "4", Model: "i5-4670K"},
		{Brand: BrandAMD, Family: "Ryzen 5", Generation: "3000", Model: "Ryzen 5 3600"},
		{Brand: BrandIntel, Family: "Core i5", Generation: "4x", Model: "i5-4670K"},
		{Brand: BrandAMD, Family: "Ryzen 9", Generation: "7000", Model: "Ryzen 9 7950X"},
	}

	got := UniqueByKey(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "i5-4670K", got[0].Model)
	assert.Equal(t, "4x", got[0].Generation, "last occurrence wins")
	assert.Equal(t, "Ryzen 5 3600", got[1].Model)
	assert.Equal(t, "Ryzen 9 7950X", got[2].Model)
}

func TestUniqueByKey_SameModelDifferentBrand(t *testing.T) {
	t.Parallel()

	rows := []Processor{
		{Brand: BrandIntel, Model: "X"},
		{Brand: BrandAMD, Model: "X"},
	}
	assert.Len(t, UniqueByKey(rows), 2)
}

func TestCoverageForBrand(t *testing.T) {
	t.Parallel()

	c := &Coverage{Brands: []BrandCoverage{{Brand: BrandIntel, Models: 12, Families: 3}}}
	assert.Equal(t, int64(12), c.ForBrand(BrandIntel).Models)
	assert.Equal(t, BrandCoverage{Brand: BrandAMD}, c.ForBrand(BrandAMD))
}
