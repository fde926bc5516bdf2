package hittest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agd-render/internal/dsl"
)

func clickable(id string, x, y, w, h int32) *dsl.Rect {
	return &dsl.Rect{
		ID: dsl.String(id), X: dsl.Int32(x), Y: dsl.Int32(y), W: dsl.Int32(w), H: dsl.Int32(h),
		Clickable: true,
	}
}

func TestFirstInListWins(t *testing.T) {
	var ix Index
	ix.Rebuild([]dsl.Command{
		clickable("a", 0, 0, 10, 10),
		clickable("b", 5, 5, 10, 10),
	})

	hit, ok := ix.Hit(7, 7)
	require.True(t, ok)
	assert.Equal(t, "a", hit.ID)

	hit, ok = ix.Hit(12, 12)
	require.True(t, ok)
	assert.Equal(t, "b", hit.ID)

	_, ok = ix.Hit(20, 20)
	assert.False(t, ok)
}

func TestDemoTargets(t *testing.T) {
	env, err := dsl.ParseRender(`{"version":"AGD/0.2","type":"render","seq":1,"window":{"width":200,"height":100,"title":"Demo"},"commands":[{"cmd":"clear","color":"#ffffff"},{"cmd":"rect","id":"btn1","x":10,"y":10,"w":50,"h":20,"fill":"#ff0000","clickable":true}]}`)
	require.NoError(t, err)

	var ix Index
	ix.Rebuild(env.Commands)

	hit, ok := ix.Hit(20, 15)
	require.True(t, ok)
	assert.Equal(t, "btn1", hit.ID)

	_, ok = ix.Hit(100, 90)
	assert.False(t, ok)

	_, ok = ix.Hit(60, 15)
	assert.False(t, ok, "right edge is exclusive")
}

func TestRebuildReplaces(t *testing.T) {
	var ix Index
	ix.Rebuild([]dsl.Command{clickable("old", 0, 0, 10, 10)})
	require.Equal(t, 1, ix.Len())

	ix.Rebuild([]dsl.Command{
		&dsl.Clear{Color: "#ffffff"},
		&dsl.Rect{ID: dsl.String("plain"), X: dsl.Int32(0), Y: dsl.Int32(0), W: dsl.Int32(10), H: dsl.Int32(10)},
		&dsl.RoundRect{ID: dsl.String("rr"), X: dsl.Int32(0), Y: dsl.Int32(0), W: dsl.Int32(10), H: dsl.Int32(10), R: dsl.Int32(2)},
	})
	assert.Equal(t, 0, ix.Len())
	_, ok := ix.Hit(1, 1)
	assert.False(t, ok)
}

func TestTargetsIsCopy(t *testing.T) {
	var ix Index
	ix.Rebuild([]dsl.Command{clickable("a", 1, 2, 3, 4)})
	ts := ix.Targets()
	require.Len(t, ts, 1)
	ts[0].ID = "changed"

	hit, ok := ix.Hit(1, 2)
	require.True(t, ok)
	assert.Equal(t, "a", hit.ID)
	assert.Equal(t, 3, hit.W)
}
