package browser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionFlagsHeadless(t *testing.T) {
	t.Parallel()

	flags := sessionFlags(Config{Headless: true})
	require.Equal(t, "new", flags["headless"])
}

func TestSessionFlagsHeaded(t *testing.T) {
	t.Parallel()

	// A false flag value makes the exec allocator omit the flag entirely,
	// overriding the headless default.
	flags := sessionFlags(Config{Headless: false})
	require.Equal(t, false, flags["headless"])
}
