// Package fingerprint derives content-addressed cache keys for ranked feed
// queries.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

// Separator bytes. Text fields are additionally length-prefixed, so a text
// containing these bytes still encodes unambiguously.
const (
	unitSep   = "\x1f"
	recordSep = "\x1e"
	groupSep  = "\x1d"
)

// KeyPrefix namespaces every feed cache key.
const KeyPrefix = "mentorfeed:feed"

// Item is the ranking-relevant content of one candidate.
type Item struct {
	ID   int64
	Text string
}

// Query holds every field that influences a ranked page.
type Query struct {
	RankingText string
	Items       []Item
	Filtered    bool
	Page        int
	Size        int
}

// Compute returns the hex-encoded SHA-256 digest of q's canonical form.
// Items are hashed in ascending ID order, so the result does not depend on
// the order they were supplied in. q.Items is not modified.
func Compute(q Query) string {
	items := slices.Clone(q.Items)
	slices.SortStableFunc(items, func(a, b Item) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return strings.Compare(a.Text, b.Text)
	})

	h := sha256.New()
	for _, it := range items {
		h.Write([]byte(strconv.FormatInt(it.ID, 10)))
		h.Write([]byte(unitSep))
		writeText(h, it.Text)
		h.Write([]byte(recordSep))
	}
	h.Write([]byte(groupSep))
	writeText(h, q.RankingText)
	h.Write([]byte(unitSep))
	if q.Filtered {
		h.Write([]byte("1"))
	} else {
		h.Write([]byte("0"))
	}
	h.Write([]byte(unitSep))
	h.Write([]byte(strconv.Itoa(q.Page)))
	h.Write([]byte(unitSep))
	h.Write([]byte(strconv.Itoa(q.Size)))

	return hex.EncodeToString(h.Sum(nil))
}

// Key builds the cache key for a fingerprint, scoped by feed kind.
// Example: mentorfeed:feed:mentors:3f2a...
func Key(kind, fp string) string {
	if kind == "" {
		return KeyPrefix + ":" + fp
	}
	return KeyPrefix + ":" + kind + ":" + fp
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func writeText(w byteWriter, s string) {
	w.Write([]byte(strconv.Itoa(len(s))))
	w.Write([]byte(unitSep))
	w.Write([]byte(s))
}
