package extract

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewaste-depot/cpu-catalog/internal/model"
)

func find(rows []model.Processor, name string) (model.Processor, bool) {
	for _, r := range rows {
		if r.Model == name {
			return r, true
		}
	}
	return model.Processor{}, false
}

func TestExtractIntel_CoreSeries(t *testing.T) {
	rows := ExtractIntel("i5-4670K and i7-13700K and i2-370M")
	require.Len(t, rows, 2)
	assert.Equal(t, model.Processor{Brand: model.BrandIntel, Family: "Core i5", Generation: "4", Model: "i5-4670K"}, rows[0])
	assert.Equal(t, model.Processor{Brand: model.BrandIntel, Family: "Core i7", Generation: "13", Model: "i7-13700K"}, rows[1])
}

func TestExtractIntel_CoreGenerationFloor(t *testing.T) {
	rows := ExtractIntel("i7-920 i7-2600K i5-3570K i3-4130 i9-10900K i5-14600KF")
	var models []string
	for _, r := range rows {
		models = append(models, r.Model)
		gen, err := strconv.Atoi(r.Generation)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, gen, MinCoreGeneration, r.Model)
		assert.Nil(t, r.BaseClockGHz)
	}
	assert.Equal(t, []string{"i3-4130", "i9-10900K", "i5-14600KF"}, models)
}

func TestExtractIntel_CoreRejectsPartialTokens(t *testing.T) {
	rows := ExtractIntel("xi5-4670K i5-467 i5-123456 i5-4670KFXZ i7-1065G7")
	assert.Empty(t, rows)
}

func TestCoreGeneration(t *testing.T) {
	tests := []struct {
		digits string
		want   int
		ok     bool
	}{
		{"4670", 4, true},
		{"8700", 8, true},
		{"10400", 10, true},
		{"14900", 14, true},
		{"370", 0, false},
		{"123456", 0, false},
	}
	for _, tt := range tests {
		got, ok := CoreGeneration(tt.digits)
		assert.Equal(t, tt.ok, ok, tt.digits)
		assert.Equal(t, tt.want, got, tt.digits)
	}
}

func TestExtractIntel_CoreUltra(t *testing.T) {
	rows := ExtractIntel("Intel Core Ultra 7 155H, Core Ultra 9 285K and the Core Ultra 5 lineup")

	p, ok := find(rows, "Core Ultra 7 155H")
	require.True(t, ok)
	assert.Equal(t, "Core Ultra 7", p.Family)
	assert.Equal(t, "1", p.Generation)

	p, ok = find(rows, "Core Ultra 9 285K")
	require.True(t, ok)
	assert.Equal(t, "2", p.Generation)

	p, ok = find(rows, "Core Ultra 5")
	require.True(t, ok)
	assert.Equal(t, "Ultra", p.Generation)
}

func TestUltraGeneration(t *testing.T) {
	assert.Equal(t, "2", UltraGeneration("265"))
	assert.Equal(t, "Ultra", UltraGeneration(""))
	assert.Equal(t, "Ultra", UltraGeneration("X65"))
}

func TestExtractIntel_XeonScalable(t *testing.T) {
	rows := ExtractIntel("Xeon Gold 6248R, Xeon Silver 4114, Xeon Bronze 3204, Xeon Platinum 8380, Xeon Gold 6448Y, Xeon Gold 6548N, Xeon CPU Max 9480, Xeon Max 9462")

	tests := []struct {
		model, family, gen string
	}{
		{"Xeon Gold 6248R", "Xeon Gold", "Scalable 2"},
		{"Xeon Silver 4114", "Xeon Silver", "Scalable 1"},
		{"Xeon Bronze 3204", "Xeon Bronze", "Scalable 2"},
		{"Xeon Platinum 8380", "Xeon Platinum", "Scalable 3"},
		{"Xeon Gold 6448Y", "Xeon Gold", "Scalable 4"},
		{"Xeon Gold 6548N", "Xeon Gold", "Scalable 5"},
		{"Xeon Max 9480", "Xeon Max", "Scalable 4"},
		{"Xeon Max 9462", "Xeon Max", "Scalable 4"},
	}
	require.Len(t, rows, len(tests))
	for _, tt := range tests {
		p, ok := find(rows, tt.model)
		require.True(t, ok, tt.model)
		assert.Equal(t, tt.family, p.Family, tt.model)
		assert.Equal(t, tt.gen, p.Generation, tt.model)
	}
}

func TestXeonScalableGeneration_Default(t *testing.T) {
	assert.Equal(t, "Scalable 1", XeonScalableGeneration("7777"))
	assert.Equal(t, "Scalable 1", XeonScalableGeneration("6"))
	assert.Equal(t, "Scalable 5", XeonScalableGeneration("9580"))
}

func TestExtractIntel_ValueLines(t *testing.T) {
	rows := ExtractIntel("Pentium Gold G5400, Pentium Silver N5000, Pentium G3258, Pentium III, Celeron N4020, Atom x5-Z8350, Atom Z3735F")

	tests := []struct {
		model, family, gen string
	}{
		{"Pentium Gold G5400", "Pentium Gold", "5000"},
		{"Pentium Silver N5000", "Pentium Silver", "5000"},
		{"Pentium G3258", "Pentium", "3000"},
		{"Pentium III", "Pentium", "0"},
		{"Celeron N4020", "Celeron", "4000"},
		{"Atom x5-Z8350", "Atom", "5000"},
		{"Atom Z3735F", "Atom", "3000"},
	}
	for _, tt := range tests {
		p, ok := find(rows, tt.model)
		require.True(t, ok, tt.model)
		assert.Equal(t, tt.family, p.Family, tt.model)
		assert.Equal(t, tt.gen, p.Generation, tt.model)
		assert.Equal(t, model.BrandIntel, p.Brand)
	}
}

func TestExtractAMD_Ryzen(t *testing.T) {
	rows := ExtractAMD("Ryzen 5 3600 and Ryzen 9 7950X3D")
	require.Len(t, rows, 2)
	assert.Equal(t, model.Processor{Brand: model.BrandAMD, Family: "Ryzen 5", Generation: "3000", Model: "Ryzen 5 3600"}, rows[0])
	assert.Equal(t, model.Processor{Brand: model.BrandAMD, Family: "Ryzen 9", Generation: "7000", Model: "Ryzen 9 7950X3D"}, rows[1])
}

func TestExtractAMD_RyzenProAndCase(t *testing.T) {
	rows := ExtractAMD("RYZEN 7 PRO 4750G; ryzen 7 5800x3d; Ryzen 5 0500")
	require.Len(t, rows, 2)
	assert.Equal(t, "Ryzen 7 4750G", rows[0].Model)
	assert.Equal(t, "4000", rows[0].Generation)
	assert.Equal(t, "Ryzen 7 5800X3D", rows[1].Model)
}

func TestExtractAMD_SeriesFloor(t *testing.T) {
	rows := ExtractAMD("Ryzen 3 1200, Threadripper 3970X, Ryzen Threadripper PRO 5995WX, EPYC 7763, EPYC 9654, EPYC 0123")
	for _, r := range rows {
		gen, err := strconv.Atoi(r.Generation)
		require.NoError(t, err, r.Model)
		assert.GreaterOrEqual(t, gen, MinAMDSeries, r.Model)
		assert.Zero(t, gen%1000, r.Model)
	}

	p, ok := find(rows, "Ryzen Threadripper 3970X")
	require.True(t, ok)
	assert.Equal(t, "Ryzen Threadripper", p.Family)
	assert.Equal(t, "3000", p.Generation)

	p, ok = find(rows, "Ryzen Threadripper 5995WX")
	require.True(t, ok)
	assert.Equal(t, "5000", p.Generation)

	p, ok = find(rows, "EPYC 9654")
	require.True(t, ok)
	assert.Equal(t, "EPYC", p.Family)
	assert.Equal(t, "9000", p.Generation)

	_, ok = find(rows, "EPYC 0123")
	assert.False(t, ok)
	assert.Len(t, rows, 5)
}

func TestExtractAMD_Athlon(t *testing.T) {
	rows := ExtractAMD("Athlon X4 860K, Athlon 200GE, Athlon 3000G, Athlon 64")
	require.Len(t, rows, 3)

	p, _ := find(rows, "Athlon X4 860K")
	assert.Equal(t, "Athlon X4", p.Family)
	assert.Equal(t, "860", p.Generation)

	p, _ = find(rows, "Athlon 200GE")
	assert.Equal(t, "Athlon", p.Family)
	assert.Equal(t, "200", p.Generation)

	p, _ = find(rows, "Athlon 3000G")
	assert.Equal(t, "3000", p.Generation)
}

func TestExtractAMD_AthlonSubSeries(t *testing.T) {
	rows := ExtractAMD("Athlon X2 250, Athlon X3 450, Athlon X4 640")
	require.Len(t, rows, 3)

	p, ok := find(rows, "Athlon X3 450")
	require.True(t, ok)
	assert.Equal(t, "Athlon X3", p.Family)
	assert.Equal(t, "450", p.Generation)
}

func TestExtract_BrandsAreSeparated(t *testing.T) {
	text := "i5-4670K Ryzen 5 3600"
	assert.Len(t, ExtractIntel(text), 1)
	assert.Len(t, ExtractAMD(text), 1)
	assert.Len(t, Extract(text), 2)
}

func TestExtract_DuplicatesCollapse(t *testing.T) {
	rows := Extract("i5-4670K, i5-4670K again, Ryzen 5 3600 / RYZEN 5 3600")
	assert.Len(t, rows, 2)
}

func TestExtract_NormalizesTrademarksAndSpaces(t *testing.T) {
	rows := ExtractIntel("Intel® Core™ Ultra 7 155H and Xeon® Gold 6248")
	_, ok := find(rows, "Core Ultra 7 155H")
	assert.True(t, ok)
	_, ok = find(rows, "Xeon Gold 6248")
	assert.True(t, ok)
}

func TestExtract_GarbageInput(t *testing.T) {
	assert.Empty(t, Extract(""))
	assert.Empty(t, Extract("<html><body>nothing to see</body></html>"))
	assert.Empty(t, Extract("\x00\xff\xfe i- Ryzen Xeon Gold EPYC"))
}

func TestExtract_Deterministic(t *testing.T) {
	text := "i7-8700K Ryzen 7 2700X Xeon Silver 4210 Celeron G1840 EPYC 7302"
	assert.Equal(t, Extract(text), Extract(text))
}

func TestRuleTable(t *testing.T) {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	assert.Contains(t, names, "core")
	assert.Contains(t, names, "ryzen")
	assert.Contains(t, names, "athlon")
	assert.Len(t, names, 11)
}
