package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "hours:user-1:5:2024:9", Key("hours", "user-1", "5", "2024", "9"))
	assert.Equal(t, "hours:_:a_b", Key("hours", " ", "a:b"))
	assert.Equal(t, "hours", Key("hours"))
}

func TestPattern(t *testing.T) {
	assert.Equal(t, "hours:user-1:*", Pattern("hours", "user-1"))
}
