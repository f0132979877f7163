package redistoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeysAreNamespacedPerClient(t *testing.T) {
	a := NewStore(nil, "client-a")
	b := NewStore(nil, "client-b")

	assert.Equal(t, "tokens:client-a:", a.prefix)
	assert.Equal(t, "tokens:client-b:", b.prefix)
	assert.NotEqual(t, a.prefix, b.prefix)
}

func TestStringAt(t *testing.T) {
	values := []any{"access", nil, 42}

	assert.Equal(t, "access", stringAt(values, 0))
	assert.Empty(t, stringAt(values, 1), "nil entry reads as absent")
	assert.Empty(t, stringAt(values, 2), "non-string entry reads as absent")
	assert.Empty(t, stringAt(values, 9), "out of range reads as absent")
}
