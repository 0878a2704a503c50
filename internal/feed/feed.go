package feed

import (
	"errors"
	"time"
)

// Paging and caching defaults.
const (
	DefaultPageSize      = 10
	MaxPageSize          = 100
	CandidateFetchSize   = 1000
	DefaultCacheTTL      = time.Hour
	DefaultOracleTimeout = 5 * time.Second
)

// ErrCandidateSource wraps any failure to fetch the candidate set.
var ErrCandidateSource = errors.New("candidate source unavailable")

// Candidate is a snapshot of one eligible profile taken at query time.
// Text is the profile's ranking text and may be empty.
type Candidate struct {
	ID   int64
	Text string
}

// Query is a fully resolved ranking request over an already fetched
// candidate set. An empty RankingText means ranking does not apply.
type Query struct {
	RankingText string
	Candidates  []Candidate
	Filtered    bool
	Page        int
	Size        int
}

// Result is one page of a composed feed. Items holds candidate IDs in
// final order; Total is the size of the whole candidate set.
type Result struct {
	Items []int64 `cbor:"1,keyasint" json:"items"`
	Total int     `cbor:"2,keyasint" json:"total"`
	Page  int     `cbor:"3,keyasint" json:"page"`
	Size  int     `cbor:"4,keyasint" json:"size"`
	Pages int     `cbor:"5,keyasint" json:"pages"`
}

// Normalize clamps page to at least 1 and replaces a size outside
// [1, MaxPageSize] with DefaultPageSize.
func Normalize(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// Merge builds a total order over candidates: IDs from ranked that belong
// to the candidate set come first in ranked order, then every remaining
// candidate in source order. Unknown and repeated ranked IDs are dropped.
func Merge(ranked []int64, candidates []Candidate) []int64 {
	known := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ID] = struct{}{}
	}

	out := make([]int64, 0, len(candidates))
	placed := make(map[int64]struct{}, len(candidates))
	for _, id := range ranked {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, id)
	}

	for _, c := range candidates {
		if _, ok := placed[c.ID]; ok {
			continue
		}
		placed[c.ID] = struct{}{}
		out = append(out, c.ID)
	}
	return out
}

// SourceOrder returns candidate IDs in the order they were supplied,
// skipping repeated IDs.
func SourceOrder(candidates []Candidate) []int64 {
	return Merge(nil, candidates)
}

// Paginate slices the window [(page-1)*size, page*size) out of ids.
// total is the candidate-set size used for the page count. page and size
// must already be normalized. An out-of-range page yields no items, however
// large page is.
func Paginate(ids []int64, total, page, size int) Result {
	start, end := len(ids), len(ids)
	// Compare page counts before multiplying so (page-1)*size cannot overflow.
	if size > 0 && page-1 < (len(ids)+size-1)/size {
		start = (page - 1) * size
		end = min(start+size, len(ids))
	}

	items := make([]int64, end-start)
	copy(items, ids[start:end])

	return Result{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: PageCount(total, size),
	}
}

// PageCount returns max(ceil(total/size), 1).
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
