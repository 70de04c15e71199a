package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadGuaranteesCardinality(t *testing.T) {
	primary := []string{"a.com", "b.com"}
	pool1 := []string{"b.com", "c.com"}
	pool2 := []string{"d.com", "e.com"}

	got := Pad(primary, 4, "acme.io", nil, pool1, pool2)
	assert.Equal(t, []string{"a.com", "b.com", "c.com", "d.com"}, got)
}

func TestPadSkipsBlockedAndSelf(t *testing.T) {
	blocked := map[string]bool{"spam.com": true}
	primary := []string{"a.com"}
	pool := []string{"spam.com", "acme.io", "shop.acme.io", "b.com", "c.com"}

	got := Pad(primary, 4, "acme.io", blocked, pool)
	require.Equal(t, []string{"a.com", "b.com", "c.com"}, got)
}

func TestPadCaseInsensitiveDedupe(t *testing.T) {
	got := Pad([]string{"A.com"}, 3, "acme.io", nil, []string{"a.COM", "b.com"})
	assert.Equal(t, []string{"a.com", "b.com"}, got)
}

func TestPadPoolPriorityOrder(t *testing.T) {
	got := Pad(nil, 2, "acme.io", nil,
		[]string{"first.com"},
		[]string{"second.com", "third.com"},
	)
	assert.Equal(t, []string{"first.com", "second.com"}, got)
}

func TestPadTruncatesOverfullPrimary(t *testing.T) {
	got := Pad([]string{"a.com", "b.com", "c.com"}, 2, "acme.io", nil)
	assert.Equal(t, []string{"a.com", "b.com"}, got)
}

func TestPadEmptyEverything(t *testing.T) {
	assert.Empty(t, Pad(nil, 4, "acme.io", nil, nil))
}
