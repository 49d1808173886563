package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Test Quest", "test-quest"},
		{"Test  Quest", "test-quest"},
		{"Test Quest!", "test-quest"},
		{"The Ruins of Eryndor", "the-ruins-of-eryndor"},
		{"  Leading & Trailing  ", "leading-trailing"},
		{"Already-Hyphenated", "already-hyphenated"},
		{"UPPER case 123", "upper-case-123"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.title), "Slugify(%q)", tc.title)
	}
}
