package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomCodeShape(t *testing.T) {
	for range 200 {
		code := RandomCode()
		assert.True(t, ValidCode(code), "code %q", code)
	}
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("100000"))
	assert.True(t, ValidCode("999999"))
	assert.False(t, ValidCode("099999"))
	assert.False(t, ValidCode("12345"))
	assert.False(t, ValidCode("12345a"))
	assert.False(t, ValidCode(""))
}
