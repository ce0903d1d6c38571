// Package reference generates human-readable booking reference codes.
package reference

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Alphabet excludes 0/O, 1/I/L so a reference survives being read over the
// phone. 6 random characters over 31 symbols gives ~887M combinations per
// day; the reservation service still checks uniqueness before committing.
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// SuffixLen is the number of random characters after the date component.
const SuffixLen = 6

// New returns a booking reference of the form BUS-20260901-X7KQ2M.
func New() (string, error) {
	return newAt(time.Now().UTC())
}

func newAt(now time.Time) (string, error) {
	buf := make([]byte, SuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reference random suffix: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("BUS-%s-%s", now.Format("20060102"), string(buf)), nil
}
