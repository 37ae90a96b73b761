package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/site-exporter/internal/collector"
)

func positional(texts ...string) []collector.Field {
	fields := make([]collector.Field, len(texts))
	for i, t := range texts {
		fields[i] = collector.Field{Text: t}
	}
	return fields
}

func TestNormalizePositionalZip(t *testing.T) {
	schema := Schema{Suffixes: []string{"array_current", "array_voltage"}}
	got := Normalize("Pine", positional("84 V", "12.1 V"), schema, nil)

	assert.Equal(t, map[string]float64{
		"Pine_array_current": 84.0,
		"Pine_array_voltage": 12.1,
	}, got)
}

func TestNormalizeEqualLengthYieldsLenSchemaKeys(t *testing.T) {
	schema := Schema{Suffixes: []string{"a", "b", "c"}}
	got := Normalize("Ridge", positional("1", "2", "3"), schema, nil)
	assert.Len(t, got, len(schema.Suffixes))
}

func TestNormalizeShorterValuesTruncateSchema(t *testing.T) {
	// 值比后缀少：尾部后缀静默丢弃，不报错
	schema := Schema{Suffixes: []string{"a", "b", "c"}}
	got := Normalize("Pine", positional("1", "2"), schema, nil)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "Pine_c")
}

func TestNormalizeExtraValuesDropped(t *testing.T) {
	schema := Schema{Suffixes: []string{"a"}}
	got := Normalize("Pine", positional("1", "2", "3"), schema, nil)
	assert.Equal(t, map[string]float64{"Pine_a": 1}, got)
}

func TestNormalizeNonNumericFieldDroppedSiblingsKept(t *testing.T) {
	// 无数值匹配的字段缺值处理，不影响兄弟字段
	schema := Schema{Suffixes: []string{"state", "voltage"}}
	got := Normalize("Pine", positional("BULK", "12.1 V"), schema, nil)

	assert.NotContains(t, got, "Pine_state")
	assert.Equal(t, 12.1, got["Pine_voltage"])
}

func TestNormalizeNamedFieldsPassThrough(t *testing.T) {
	fields := []collector.Field{
		{Name: "battery_voltage", Text: "481"},
		{Name: "battery_temp", Text: "23"},
	}
	got := Normalize("Pine", fields, Schema{}, nil)

	assert.Equal(t, map[string]float64{
		"Pine_battery_voltage": 481,
		"Pine_battery_temp":    23,
	}, got)
}

func TestNormalizeExclusionSetRemovesKeys(t *testing.T) {
	schema := Schema{
		Suffixes: []string{"charge_state", "voltage"},
		Exclude:  []string{"charge_state"},
	}
	got := Normalize("Pine", positional("3", "12.1"), schema, schema.ExclusionSet("Pine"))

	assert.NotContains(t, got, "Pine_charge_state")
	assert.Contains(t, got, "Pine_voltage")
}

func TestExclusionSetIsSitePrefixed(t *testing.T) {
	schema := Schema{Exclude: []string{"charge_state"}}
	set := schema.ExclusionSet("Pine")
	_, ok := set["Pine_charge_state"]
	assert.True(t, ok)
}

func TestExtractNumber(t *testing.T) {
	cases := []struct {
		in    string
		want  float64
		match bool
	}{
		{"84 V", 84, true},
		{"12.1 V", 12.1, true},
		{"-5.2 C", -5.2, true},
		{".75", 0.75, true},
		{"+3", 3, true},
		{"temp: 21.5", 21.5, true},
		{"BULK", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		v, ok := extractNumber(tc.in)
		require.Equal(t, tc.match, ok, "input %q", tc.in)
		if ok {
			assert.Equal(t, tc.want, v, "input %q", tc.in)
		}
	}
}
