package handlerregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGetFactory(t *testing.T) {
	r := New()
	called := false
	r.RegisterHandler("file", func() interface{} {
		called = true
		return "handler"
	})

	f, ok := r.GetFactory("file")
	require.True(t, ok)
	f()
	assert.True(t, called)
}

func TestGetFactoryMissing(t *testing.T) {
	r := New()
	_, ok := r.GetFactory("nope")
	assert.False(t, ok)
}

func TestRegisterMappingOrdering(t *testing.T) {
	r := New()
	r.RegisterHandler("file", func() interface{} { return nil })
	r.RegisterMapping("file", "/a", "one")
	r.RegisterMapping("file", "/a", "two")
	r.RegisterMapping("file", "/b", "three")

	m := r.GetMap("file")
	assert.Equal(t, []string{"one", "two"}, m["/a"])
	assert.Equal(t, []string{"three"}, m["/b"])
}

func TestGetMapIsSnapshot(t *testing.T) {
	r := New()
	r.RegisterHandler("file", func() interface{} { return nil })
	r.RegisterMapping("file", "/a", "one")

	snap := r.GetMap("file")
	snap["/a"] = append(snap["/a"], "mutated")

	fresh := r.GetMap("file")
	assert.Len(t, fresh["/a"], 1)
}

func TestRegisterMappingUnknownHandlerIsNoop(t *testing.T) {
	r := New()
	r.RegisterMapping("ghost", "/a", "one")
	assert.Nil(t, r.GetMap("ghost"))
}

func TestGetTypesSorted(t *testing.T) {
	r := New()
	r.RegisterHandler("post", func() interface{} { return nil })
	r.RegisterHandler("file", func() interface{} { return nil })
	r.RegisterHandler("health", func() interface{} { return nil })

	assert.Equal(t, []string{"file", "health", "post"}, r.GetTypes())
}
