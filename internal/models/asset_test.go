package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, ValidCategory(c), c)
	}
	assert.False(t, ValidCategory("computer"))
	assert.False(t, ValidCategory("Laptop"))
	assert.False(t, ValidCategory(""))
}

func TestExtraMapGetSet(t *testing.T) {
	var m ExtraMap
	_, ok := m.Get("MAC Address")
	assert.False(t, ok)

	m.Set("MAC Address", "00:11:22:33:44:55")
	m.Set("Port", 12.0)
	m.Set("MAC Address", "aa:bb:cc:dd:ee:ff")

	v, ok := m.Get("MAC Address")
	require.True(t, ok)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", v)

	// Overwriting keeps the original position
	require.Len(t, m, 2)
	assert.Equal(t, "MAC Address", m[0].Key)
	assert.Equal(t, "Port", m[1].Key)
}

func TestExtraMapJSONRoundTrip(t *testing.T) {
	m := ExtraMap{
		{Key: "Zebra", Value: "first"},
		{Key: "Alpha", Value: "second"},
		{Key: "Count", Value: 3.0},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	// Insertion order survives, not alphabetical order
	assert.Equal(t, `{"Zebra":"first","Alpha":"second","Count":3}`, string(data))

	var out ExtraMap
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 3)
	assert.Equal(t, "Zebra", out[0].Key)
	assert.Equal(t, "first", out[0].Value)
	assert.Equal(t, "Alpha", out[1].Key)
	assert.Equal(t, 3.0, out[2].Value)
}

func TestExtraMapJSONNulls(t *testing.T) {
	var m ExtraMap
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var out ExtraMap
	require.NoError(t, json.Unmarshal([]byte("null"), &out))
	assert.Nil(t, out)

	// null values inside the object are dropped
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"kept"}`), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Key)
}

func TestExtraMapJSONRejectsNonObject(t *testing.T) {
	var out ExtraMap
	assert.Error(t, json.Unmarshal([]byte(`["not","an","object"]`), &out))
	assert.Error(t, json.Unmarshal([]byte(`"string"`), &out))
}

func TestExtraMapValuer(t *testing.T) {
	var empty ExtraMap
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ExtraMap{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	m := ExtraMap{{Key: "Room", Value: "4B"}}
	v, err = m.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Room":"4B"}`, string(v.([]byte)))
}

func TestExtraMapScan(t *testing.T) {
	var m ExtraMap
	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	require.NoError(t, m.Scan([]byte(`{"Room":"4B","Jack":7}`)))
	require.Len(t, m, 2)
	assert.Equal(t, "Room", m[0].Key)
	assert.Equal(t, 7.0, m[1].Value)

	require.NoError(t, m.Scan(`{"Room":"4B"}`))
	require.Len(t, m, 1)

	assert.Error(t, m.Scan(42))
}
