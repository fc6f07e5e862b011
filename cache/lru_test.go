package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vimcore/objrt/cache"
)

func TestLRU(t *testing.T) {
	assert := assert.New(t)
	lru := cache.NewLRU(10)
	v, err := lru.GetOrLoad("foo", func(interface{}) (interface{}, error) {
		return "bar", nil
	})
	assert.NoError(err)
	assert.Equal(v, "bar")

	v, ok := lru.Get("foo")
	assert.True(ok)
	assert.Equal(v, "bar")

	assert.Equal(10, lru.MaxSize())
}
