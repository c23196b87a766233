// Package processid generates and parses process identifiers of the form
// <TypeName>-<base36 unix millis>-<8 hex digits>.
package processid

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed returned by Parse for ids that do not have three segments.
var ErrMalformed = errors.New("malformed process id")

// ID parsed process identifier
type ID struct {
	Type      string
	CreatedAt time.Time
	Suffix    string
}

// now is swapped in tests.
var now = time.Now

// Generate builds a fresh id for typeName. Uniqueness is not checked against
// any store: two ids in the same millisecond collide only if the 32-bit
// random suffix also matches.
func Generate(typeName string) string {
	return fmt.Sprintf("%s-%s-%s", typeName, strconv.FormatInt(now().UnixMilli(), 36), randomHex())
}

// ParseType returns everything before the first '-'.
func ParseType(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return id[:i]
	}
	return id
}

// Parse splits all three segments.
func Parse(id string) (ID, error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformed, id)
	}
	millis, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil {
		return ID{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformed, parts[1], err)
	}
	return ID{
		Type:      parts[0],
		CreatedAt: time.UnixMilli(millis),
		Suffix:    parts[2],
	}, nil
}

func randomHex() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("processid: read random: %v", err))
	}
	return hex.EncodeToString(b[:])
}
