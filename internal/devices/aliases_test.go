package devices

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"promo-data/internal/domain"
)

func TestAliases_Generated(t *testing.T) {
	c := NewClassifier()

	ultra := c.Aliases("Samsung Galaxy S24 Ultra")
	assert.Subset(t, ultra, []string{"Samsung Galaxy S24 Ultra", "Galaxy S24 Ultra", "S24 Ultra", "S24U"})

	assert.Subset(t, c.Aliases("Apple iPhone 16 Pro Max"), []string{"iPhone 16 Pro Max", "i16 Pro Max", "iPhone 16 ProMax"})
	assert.Subset(t, c.Aliases("Apple iPhone 15 Plus"), []string{"iPhone 15+", "iPhone15 Plus"})

	mini := c.Aliases("Apple iPhone 13 Mini")
	assert.Contains(t, mini, "iPhone 13 Mini")
	assert.NotContains(t, mini, "iPhone 13")

	assert.Subset(t, c.Aliases("Google Pixel 9a"), []string{"Pixel 9a", "Pixel 9A", "P9a"})
	assert.Subset(t, c.Aliases("T-Mobile REVVL 8 Pro"), []string{"REVVL 8 Pro", "TMO REVVL 8 Pro", "REVVL8 Pro"})
	assert.Subset(t, c.Aliases("Motorola Razr+ 2024"), []string{"Razr+", "Moto Razr Plus 2024", "Razr+ 2024"})

	g := c.Aliases("Moto G 2024")
	assert.Contains(t, g, "Moto G 2024")
	assert.NotContains(t, g, "G")

	assert.Equal(t, []string{"Unknown Phone"}, c.Aliases("Unknown Phone"))
}

func testCatalog() *Catalog {
	row := func(model, sku string) domain.CanonicalDevice {
		return domain.CanonicalDevice{Model: model, SKUType: "A-STOCK", Brand: "T-MOBILE",
			Row: map[string]string{"Model(External)": model, "SKU": sku}}
	}
	return &Catalog{
		Header: []string{"Model(External)", "SKU"},
		Devices: []domain.CanonicalDevice{
			row("SAM S928U GALAXY S24 ULTRA 256GB", "SKU1"),
			row("APL IPHONE 15 128GB", "SKU2"),
			row("SAM S928U GALAXY S24 ULTRA 512GB", "SKU3"),
			row("NOK 3310 CLASSIC", "SKU4"),
			row("SAM S928U GALAXY S24 ULTRA 256GB", "SKU5"),
		},
	}
}

func TestBuildAliasEntries_FansOutToEveryDevice(t *testing.T) {
	entries := BuildAliasEntries(testCatalog(), NewClassifier())

	var s24u []string
	for _, e := range entries {
		assert.NotEqual(t, "NOK 3310 CLASSIC", e.Model, "unmappable devices get no aliases")
		if e.Alias == "S24U" {
			s24u = append(s24u, e.Model)
		}
	}
	assert.Equal(t, []string{"SAM S928U GALAXY S24 ULTRA 256GB", "SAM S928U GALAXY S24 ULTRA 512GB"}, s24u)
}

func TestAliasCSV_WriteThenLoad(t *testing.T) {
	entries := BuildAliasEntries(testCatalog(), NewClassifier())
	var buf bytes.Buffer
	require.NoError(t, WriteAliasCSV(&buf, entries))
	assert.True(t, strings.HasPrefix(buf.String(), "marketing_alias,manufacturer_name\n"))

	ix, skipped, err := ReadAliasIndex(&buf)
	require.NoError(t, err)
	assert.Zero(t, skipped)

	models, ok := ix.Lookup("  s24u ")
	require.True(t, ok)
	assert.Len(t, models, 2)

	models, ok = ix.Lookup("IPHONE 15")
	require.True(t, ok)
	assert.Equal(t, []string{"APL IPHONE 15 128GB"}, models)
}

func TestReadAliasIndex_SkipsBadRows(t *testing.T) {
	in := "manufacturer_name,marketing_alias\nAPL IPHONE 15 128GB,iPhone 15\n,S24U\nSAM X,\nonly-one-field\n"
	ix, skipped, err := ReadAliasIndex(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, 1, ix.Len())
}

func TestReadAliasIndex_BadHeader(t *testing.T) {
	_, _, err := ReadAliasIndex(strings.NewReader("alias,model\na,b\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, _, err = ReadAliasIndex(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestLoadAliasIndex_MissingFile(t *testing.T) {
	_, err := LoadAliasIndex(filepath.Join(t.TempDir(), "aliases.csv"), zap.NewNop())
	assert.True(t, IsNotFound(err))
}
