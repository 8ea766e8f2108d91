package intern

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_GetIsStable(t *testing.T) {
	p := NewPool()

	a := p.Get("subClassOf")
	b := p.Get("partOf")
	require.NotEqual(t, InvalidID, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, p.Get("subClassOf"))
	assert.Equal(t, "subClassOf", p.GetStr(a))
	assert.Equal(t, "partOf", p.GetStr(b))
	assert.Equal(t, 2, p.Len())
}

func TestPool_EmptyAndUnknown(t *testing.T) {
	p := NewPool()

	assert.Equal(t, InvalidID, p.Get(""))
	assert.Equal(t, "", p.GetStr(InvalidID))
	assert.Equal(t, "", p.GetStr(42))

	_, ok := p.Lookup("missing")
	assert.False(t, ok)
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p.Get(fmt.Sprintf("rel-%d", i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, p.Len())
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("rel-%d", i)
		id, ok := p.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, p.GetStr(id))
	}
}
