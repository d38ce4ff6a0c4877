package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// suffix length balances readability against collision odds for a
// single-shop volume; the unique index on tracking_code is the real guard.
const suffixLength = 6

// Generator produces public, human-readable tracking codes of the form
// <PREFIX>-<YEAR>-<SUFFIX>. Uniqueness is enforced by the store, not here;
// callers retry on a duplicate-key failure.
type Generator struct {
	prefix string
	now    func() time.Time
}

// NewGenerator builds a generator with the shop's code prefix.
func NewGenerator(prefix string) *Generator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "REP"
	}
	return &Generator{prefix: prefix, now: time.Now}
}

// NewCode returns a fresh candidate tracking code.
func (g *Generator) NewCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:suffixLength]
	return fmt.Sprintf("%s-%d-%s", g.prefix, g.now().Year(), suffix)
}

// Normalize canonicalizes a user-supplied code for lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
