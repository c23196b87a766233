package processid

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var idPattern = regexp.MustCompile(`^[A-Za-z]+-[0-9a-z]+-[0-9a-f]{8}$`)

func TestGenerateShape(t *testing.T) {
	id := Generate("ReagrupamentoConjuge")
	assert.Regexp(t, idPattern, id)
	assert.Equal(t, "ReagrupamentoConjuge", ParseType(id))
}

func TestGenerateEncodesMillis(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	id := Generate("CPLP")
	parsed, err := Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "CPLP", parsed.Type)
	assert.True(t, parsed.CreatedAt.Equal(fixed))
	assert.Len(t, parsed.Suffix, 8)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, "ReagrupamentoConjuge", ParseType("ReagrupamentoConjuge-ab12cd-00000001"))
	assert.Equal(t, "semHifen", ParseType("semHifen"))
	assert.Equal(t, "", ParseType("-abc-def"))
}

func TestParseMalformed(t *testing.T) {
	for _, id := range []string{"", "CPLP", "CPLP-abc", "CPLP--00000001", "CPLP-!!-00000001"} {
		_, err := Parse(id)
		assert.True(t, errors.Is(err, ErrMalformed), id)
	}
}

func TestParseTypeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		typeName := rapid.StringMatching(`[A-Za-z][A-Za-z0-9_]{0,30}`).Draw(t, "type")
		if got := ParseType(Generate(typeName)); got != typeName {
			t.Fatalf("ParseType(Generate(%q)) = %q", typeName, got)
		}
	})
}

func TestGenerateSameMillisecondDiffers(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[Generate("CPLP")] = true
	}
	// 100 draws from 2^32 collide with probability ~1e-6
	assert.Greater(t, len(seen), 98)
}
