package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_ResourceKey(t *testing.T) {
	s := New(nil, WithKeyPrefix("t:"))

	assert.Equal(t, "t:res:6:leaves:l-1", s.resourceKey("leaves", "l-1"))
	assert.NotEqual(t, s.resourceKey("a:b", "c"), s.resourceKey("a", "b:c"))
	assert.NotEqual(t, s.resourceKey("a", ""), s.resourceKey("", "a"))
}
