package checkout

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const suffixLen = 4

const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber builds a short human-readable order code: a fixed prefix, the
// current unix time in base 36, and a short random suffix. Uniqueness is
// probabilistic; the unique index on orders.order_number catches the rare
// collision as a constraint violation.
func NewOrderNumber(prefix string, now time.Time) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.Unix(), 36)))
	b.WriteByte('-')
	for range suffixLen {
		b.WriteByte(suffixAlphabet[rand.Intn(len(suffixAlphabet))])
	}
	return b.String()
}
