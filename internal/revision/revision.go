// Package revision builds and inspects revision strings of the form
// "N-digest", where N is the update generation and digest is a hash of
// the document body at that generation.
package revision

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// Generation returns the numeric generation of a revision string, or 0
// for an empty or malformed one.
func Generation(rev string) int {
	gen, _, ok := strings.Cut(rev, "-")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(gen)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Next derives the revision that follows prev for the given body bytes.
// The digest covers both the body and the new generation, so identical
// bodies still produce distinct revisions across generations.
func Next(prev string, body []byte) string {
	gen := Generation(prev) + 1
	h := blake3.New()
	h.Write([]byte(strconv.Itoa(gen)))
	h.Write([]byte{0})
	h.Write(body)
	sum := h.Sum(nil)
	return strconv.Itoa(gen) + "-" + hex.EncodeToString(sum[:16])
}
