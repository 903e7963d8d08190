package rules_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysvitali/preclear/pkg/rules"
)

const header = "origin_country,origin_country_iso,country,country_iso,mode,package_type,product_description,hs_code,max_weight_kg_per_package,max_total_weight_kg,restricted,restricted_details,banned,banned_details,packing_notes\n"

func load(t *testing.T, data string) *rules.Dataset {
	d := rules.New()
	d.Load(strings.NewReader(data))
	return d
}

func TestLoad(t *testing.T) {
	d := load(t, header+
		"China,CN,United States,US,air,box,Medicines,3004,,,no,,yes,Controlled substances,\n"+
		"Germany,DE,France,FR,sea,pallet,Machinery,84,500,2000,Yes,Needs permit,false,,Strap pallets\n")
	require.Equal(t, 2, d.Len())

	matched := d.FindMatchingRules(rules.Query{Origin: "DE", Destination: "FR", Mode: "sea", PackageType: "pallet", HSCode: "847130"})
	require.Len(t, matched, 1)
	r := matched[0]
	assert.True(t, r.Restricted)
	assert.False(t, r.Banned)
	assert.Equal(t, "Needs permit", r.RestrictedDetails)
	assert.Equal(t, "Strap pallets", r.PackingNotes)
	require.NotNil(t, r.MaxWeightKgPerPackage)
	assert.Equal(t, 500.0, *r.MaxWeightKgPerPackage)
	require.NotNil(t, r.MaxTotalWeightKg)
	assert.Equal(t, 2000.0, *r.MaxTotalWeightKg)
}

func TestLoad_QuotedDelimiter(t *testing.T) {
	d := load(t, "mode,packing_notes,banned\n"+
		`"Air, Express","Keep dry, upright",TRUE`+"\n")
	require.Equal(t, 1, d.Len())

	matched := d.FindMatchingRules(rules.Query{Mode: "air, express"})
	require.Len(t, matched, 1)
	assert.Equal(t, "Air, Express", matched[0].Mode)
	assert.Equal(t, "Keep dry, upright", matched[0].PackingNotes)
	assert.True(t, matched[0].Banned)
}

func TestLoad_ColumnsInAnyOrder(t *testing.T) {
	d := load(t, "HS_CODE, Banned ,mode\n30,1,air\n")
	matched := d.FindMatchingRules(rules.Query{Mode: "AIR", HSCode: "300490"})
	require.Len(t, matched, 1)
	assert.True(t, matched[0].Banned)
	assert.Equal(t, "", matched[0].OriginCountry)
	assert.Nil(t, matched[0].MaxTotalWeightKg)
}

func TestLoad_InvalidValues(t *testing.T) {
	d := load(t, "mode,max_weight_kg_per_package,restricted\nair,heavy,maybe\n")
	matched := d.FindMatchingRules(rules.Query{Mode: "air"})
	require.Len(t, matched, 1)
	assert.Nil(t, matched[0].MaxWeightKgPerPackage)
	assert.False(t, matched[0].Restricted)
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	d := load(t, "mode,package_type,hs_code\n"+
		"air,box,85\n"+
		"sea\n"+
		`road,"crate,85`+"\n"+
		"rail,drum,30\n")
	assert.Equal(t, 3, d.Len())

	sea := d.FindMatchingRules(rules.Query{Mode: "sea", PackageType: "pallet", HSCode: "9403"})
	require.Len(t, sea, 1)
	assert.Equal(t, "sea", sea[0].Mode)
	assert.Empty(t, sea[0].PackageType)
	assert.Empty(t, sea[0].HSCode)
}

func TestLoad_ShortRowKeepsRule(t *testing.T) {
	d := load(t, "origin_country,country,mode,hs_code,banned,packing_notes\n"+
		"CN,US,air,3004,yes\n"+
		"CN,US,sea,3004\n")
	require.Equal(t, 2, d.Len())

	matched := d.FindMatchingRules(rules.Query{Origin: "CN", Destination: "US", Mode: "air", HSCode: "300490"})
	require.Len(t, matched, 1)
	assert.True(t, matched[0].Banned)
	assert.Empty(t, matched[0].PackingNotes)
	assert.Nil(t, matched[0].MaxTotalWeightKg)

	sea := d.FindMatchingRules(rules.Query{Origin: "CN", Destination: "US", Mode: "sea", HSCode: "3004"})
	require.Len(t, sea, 1)
	assert.False(t, sea[0].Banned)
}

func TestLoad_HeaderOnly(t *testing.T) {
	assert.Equal(t, 0, load(t, header).Len())
	assert.Equal(t, 0, load(t, "").Len())
}

func TestLoad_Idempotent(t *testing.T) {
	d := load(t, "mode\nair\n")
	n := d.Load(strings.NewReader("mode\nsea\nroad\n"))
	assert.Equal(t, 1, n)
	assert.Len(t, d.FindMatchingRules(rules.Query{Mode: "sea"}), 0)
}

func TestLoadFile(t *testing.T) {
	d := rules.New()
	assert.Equal(t, 0, d.LoadFile(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Empty(t, d.FindMatchingRules(rules.Query{Mode: "air"}))

	p := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, os.WriteFile(p, []byte("mode\r\nair\r\n"), 0o644))
	assert.Equal(t, 1, d.LoadFile(p))
}

func TestLoad_Delimiter(t *testing.T) {
	d := rules.New(rules.WithDelimiter(';'))
	d.Load(strings.NewReader("mode;packing_notes\nair;\"a;b\"\n"))
	matched := d.FindMatchingRules(rules.Query{Mode: "air"})
	require.Len(t, matched, 1)
	assert.Equal(t, "a;b", matched[0].PackingNotes)
}

func TestFindMatchingRules_Wildcards(t *testing.T) {
	d := load(t, header+",,,,,,,,,,,,,,\n")
	queries := []rules.Query{
		{Origin: "CN", Destination: "US", Mode: "air", PackageType: "box", HSCode: "850410"},
		{Origin: "Germany", Destination: "FR", Mode: "sea", PackageType: "pallet", HSCode: ""},
		{},
	}
	for _, q := range queries {
		assert.Len(t, d.FindMatchingRules(q), 1, "query %+v", q)
	}
}

func TestFindMatchingRules_HSCodePrefix(t *testing.T) {
	d := load(t, "hs_code\n85\n")
	assert.Len(t, d.FindMatchingRules(rules.Query{HSCode: "8504"}), 1)
	assert.Len(t, d.FindMatchingRules(rules.Query{HSCode: "850410"}), 1)
	assert.Len(t, d.FindMatchingRules(rules.Query{HSCode: "30"}), 0)
	assert.Len(t, d.FindMatchingRules(rules.Query{HSCode: ""}), 0)
}

func TestFindMatchingRules_CountryNameOrISO(t *testing.T) {
	d := load(t, "origin_country,origin_country_iso,country,country_iso\nChina,CN,,US\n")
	assert.Len(t, d.FindMatchingRules(rules.Query{Origin: "cn", Destination: "us"}), 1)
	assert.Len(t, d.FindMatchingRules(rules.Query{Origin: "china", Destination: "US"}), 1)
	assert.Len(t, d.FindMatchingRules(rules.Query{Origin: "CN", Destination: "United States"}), 0)
	assert.Len(t, d.FindMatchingRules(rules.Query{Origin: "DE", Destination: "US"}), 0)
}

func TestFindMatchingRules_Order(t *testing.T) {
	d := load(t, "mode,packing_notes\nair,first\n,second\nsea,third\nAIR,fourth\n")
	matched := d.FindMatchingRules(rules.Query{Mode: "air"})
	require.Len(t, matched, 3)
	assert.Equal(t, "first", matched[0].PackingNotes)
	assert.Equal(t, "second", matched[1].PackingNotes)
	assert.Equal(t, "fourth", matched[2].PackingNotes)
}
