package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestMatches(t *testing.T) {
	data := []byte("# Session: Focus - 2024-01-15 14:30\n")
	sum := Sum(data)

	for _, tag := range []string{sum, `"` + sum + `"`, `W/"` + sum + `"`, " " + sum + " "} {
		assert.True(t, Matches(data, tag), tag)
	}
	assert.False(t, Matches(data, `"stale"`))
	assert.False(t, Matches(data, ""))
}
