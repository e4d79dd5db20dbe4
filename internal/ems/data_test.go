package ems

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatMarshalsNaNAsNull(t *testing.T) {
	b, err := json.Marshal(Float(math.NaN()))
	require.NoError(t, err)
	require.Equal(t, "null", string(b))

	b, err = json.Marshal(Float(13.8))
	require.NoError(t, err)
	require.Equal(t, "13.8", string(b))
}

func TestFloatUnmarshalsNullAsNaN(t *testing.T) {
	var f Float
	require.NoError(t, json.Unmarshal([]byte("null"), &f))
	require.True(t, math.IsNaN(float64(f)))

	require.NoError(t, json.Unmarshal([]byte("2000"), &f))
	require.Equal(t, Float(2000), f)

	require.Error(t, json.Unmarshal([]byte(`"nope"`), &f))
}

func TestSnapshotMarshalsWithUnseenChannels(t *testing.T) {
	// A fresh snapshot is full of NaN channels; json.Marshal of bare
	// float64 would fail, so this proves the null encoding end to end.
	d := New()
	d.FeedBytes(testFrame(5000, 128, 10, make([]byte, 11)))

	b, err := json.Marshal(d.Snapshot())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	require.InDelta(t, 2000.0, m["rpm"].(float64), 1e-9)
	require.Nil(t, m["clt"], "never-seen channel must encode as null")
	require.Nil(t, m["voltage"])
	require.Equal(t, true, m["connected"])
}
