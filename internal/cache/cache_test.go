// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cachePath = "/data/cache.json"

func TestOpenMissingFileIsEmpty(t *testing.T) {
	c, err := Open(afero.NewMemMapFs(), cachePath)
	require.NoError(t, err)
	assert.Empty(t, c.GetAll())

	_, ok := c.Get("anything")
	assert.False(t, ok)
}

func TestSetWritesThroughAndReloads(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := Open(fs, cachePath)
	require.NoError(t, err)

	require.NoError(t, c.Set("[expert:en]-mona lisa", json.RawMessage(`{"items": [ {"link": "https://a.example/<x>"} ]}`)))

	data, err := afero.ReadFile(fs, cachePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[expert:en]-mona lisa")

	reopened, err := Open(fs, cachePath)
	require.NoError(t, err)
	before, ok := c.Get("[expert:en]-mona lisa")
	require.True(t, ok)
	after, ok := reopened.Get("[expert:en]-mona lisa")
	require.True(t, ok)
	assert.Equal(t, string(before), string(after), "bytes must survive a save/load round trip")
	assert.Equal(t, `{"items":[{"link":"https://a.example/<x>"}]}`, string(after))
}

func TestSetLastWriteWins(t *testing.T) {
	c, err := Open(afero.NewMemMapFs(), cachePath)
	require.NoError(t, err)
	require.NoError(t, c.Set("k", json.RawMessage(`1`)))
	require.NoError(t, c.Set("k", json.RawMessage(`2`)))

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "2", string(v))
}

func TestSetFailureLeavesMemoryUnchanged(t *testing.T) {
	base := afero.NewMemMapFs()
	seed, err := Open(base, cachePath)
	require.NoError(t, err)
	require.NoError(t, seed.Set("existing", json.RawMessage(`"old"`)))

	c, err := Open(afero.NewReadOnlyFs(base), cachePath)
	require.NoError(t, err)

	assert.Error(t, c.Set("new", json.RawMessage(`"x"`)))
	_, ok := c.Get("new")
	assert.False(t, ok, "failed insert must be rolled back")

	assert.Error(t, c.Set("existing", json.RawMessage(`"replaced"`)))
	v, ok := c.Get("existing")
	require.True(t, ok)
	assert.Equal(t, `"old"`, string(v), "failed overwrite must be rolled back")
}

func TestSetRejectsInvalidJSON(t *testing.T) {
	c, err := Open(afero.NewMemMapFs(), cachePath)
	require.NoError(t, err)
	assert.Error(t, c.Set("k", json.RawMessage(`{oops`)))
	assert.Empty(t, c.GetAll())
}

func TestOpenCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cachePath, []byte("not json"), 0o644))
	_, err := Open(fs, cachePath)
	assert.ErrorContains(t, err, "parsing cache file")
}

func TestGetReturnsCopy(t *testing.T) {
	c := NewMemory()
	require.NoError(t, c.Set("k", json.RawMessage(`"abc"`)))
	v, _ := c.Get("k")
	v[1] = 'z'
	again, _ := c.Get("k")
	assert.Equal(t, `"abc"`, string(again))
}

func TestConcurrentSets(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := Open(fs, cachePath)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Set(fmt.Sprintf("k%02d", i), json.RawMessage(fmt.Sprintf("%d", i))))
		}()
	}
	wg.Wait()

	reopened, err := Open(fs, cachePath)
	require.NoError(t, err)
	assert.Len(t, reopened.GetAll(), 20)
	assert.Equal(t, "k00", reopened.Keys()[0])
}
