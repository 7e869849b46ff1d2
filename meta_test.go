package thredds

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMeta(t *testing.T, doc string) *DatasetMeta {
	t.Helper()
	info, err := ParseNcML([]byte(doc), "ds")
	require.NoError(t, err)
	return info.Meta
}

func TestSchemaEqual(t *testing.T) {
	a := parseMeta(t, ncmlDoc("first", 3))

	t.Run("reflexive", func(t *testing.T) {
		assert.True(t, a.SchemaEqual(a))
	})

	t.Run("attribute values ignored", func(t *testing.T) {
		b := parseMeta(t, ncmlDoc("second", 3))
		diff := a.Diff(b)
		assert.True(t, diff.Equal())
		assert.Equal(t, []string{"history"}, diff.Attributes)
		assert.True(t, a.SchemaEqual(b))
	})

	t.Run("dimension lengths ignored", func(t *testing.T) {
		b := parseMeta(t, ncmlDoc("first", 7))
		assert.True(t, a.SchemaEqual(b))
	})

	t.Run("extra dimension", func(t *testing.T) {
		b := parseMeta(t, ncmlDoc("first", 3, "lon"))
		diff := a.Diff(b)
		assert.False(t, diff.Equal())
		assert.Equal(t, []string{"lon"}, diff.Dimensions)
		assert.False(t, a.SchemaEqual(b))
		assert.False(t, b.SchemaEqual(a))
	})

	t.Run("variable type", func(t *testing.T) {
		b := parseMeta(t, ncmlDoc("first", 3))
		b.Variables["temp"].Type = "double"
		diff := a.Diff(b)
		assert.Equal(t, []string{"temp"}, diff.Variables)
		assert.False(t, a.SchemaEqual(b))
	})

	t.Run("shape order", func(t *testing.T) {
		b := parseMeta(t, ncmlDoc("first", 3))
		b.Variables["temp"].Shape = []string{"lat", "time"}
		assert.True(t, a.SchemaEqual(b))

		b.Variables["temp"].Shape = []string{"lat"}
		assert.False(t, a.SchemaEqual(b))
	})

	t.Run("missing variable", func(t *testing.T) {
		b := parseMeta(t, ncmlDoc("first", 3))
		delete(b.Variables, "time")
		assert.Equal(t, []string{"time"}, a.Diff(b).Variables)
	})

	t.Run("variable attributes ignored", func(t *testing.T) {
		b := parseMeta(t, ncmlDoc("first", 3))
		b.Variables["temp"].Attributes["_FillValue"] = FloatValue(0)
		diff := a.Diff(b)
		assert.True(t, diff.Equal())
		assert.Equal(t, []string{"temp._FillValue"}, diff.Attributes)
	})

	t.Run("nil", func(t *testing.T) {
		var n *DatasetMeta
		assert.True(t, n.SchemaEqual(nil))
		assert.False(t, a.SchemaEqual(nil))
		assert.False(t, n.SchemaEqual(a))
	})
}

func TestValueJSON(t *testing.T) {
	attrs := Attributes{
		"title":  StringValue("ICON"),
		"number": StringValue("12"),
		"count":  IntValue(3),
		"scale":  FloatValue(0.5),
		"fill":   FloatValue(-999),
		"unset":  {},
	}
	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": {"value": "ICON"},
		"number": {"value": "12"},
		"count": {"value": 3},
		"scale": {"value": 0.5},
		"fill": {"value": -999.0},
		"unset": {"value": null}
	}`, string(data))

	var back Attributes
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, attrs, back)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "abc", StringValue("abc").String())
	assert.Equal(t, "-4", IntValue(-4).String())
	assert.Equal(t, "1.5", FloatValue(1.5).String())
	assert.Equal(t, "", Value{}.String())
}

func TestValueJSONNonFinite(t *testing.T) {
	attrs := Attributes{
		"nan":    FloatValue(math.NaN()),
		"posinf": FloatValue(math.Inf(1)),
		"neginf": FloatValue(math.Inf(-1)),
	}
	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nan": {"value": "NaN"},
		"posinf": {"value": "Infinity"},
		"neginf": {"value": "-Infinity"}
	}`, string(data))

	var back Attributes
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsNaN(back.Get("nan").Float))
	assert.True(t, math.IsInf(back.Get("posinf").Float, 1))
	assert.True(t, math.IsInf(back.Get("neginf").Float, -1))
	for _, v := range back {
		assert.Equal(t, KindFloat, v.Kind)
	}
}
