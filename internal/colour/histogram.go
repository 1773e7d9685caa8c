package colour

import (
	"sort"
)

// bucketStats holds one histogram entry. Saturation is the value of the
// most recent sample that landed in the bucket, not an aggregate.
type bucketStats struct {
	count      int
	saturation float64
}

// Histogram coalesces near-duplicate pixels into quantised buckets.
// Buckets remember insertion order so that equal scores rank stably.
type Histogram struct {
	bucketWidth int
	order       []RGB
	stats       map[RGB]*bucketStats
}

// NewHistogram creates an empty histogram with the given bucket width.
func NewHistogram(bucketWidth int) *Histogram {
	if bucketWidth < 1 {
		bucketWidth = 1
	}
	return &Histogram{
		bucketWidth: bucketWidth,
		stats:       make(map[RGB]*bucketStats),
	}
}

// Quantize floors each channel to the nearest lower multiple of the bucket width.
func (h *Histogram) Quantize(c RGB) RGB {
	return quantize(c, h.bucketWidth)
}

// Quantize floors each channel to the nearest lower multiple of 15.
func Quantize(c RGB) RGB {
	return quantize(c, DefaultConfig().BucketWidth)
}

func quantize(c RGB, width int) RGB {
	w := uint8(width)
	return RGB{
		R: c.R / w * w,
		G: c.G / w * w,
		B: c.B / w * w,
	}
}

// Observe records a sample with its saturation.
func (h *Histogram) Observe(c RGB, saturation float64) {
	h.add(h.Quantize(c), saturation)
}

func (h *Histogram) add(bucket RGB, saturation float64) {
	st, ok := h.stats[bucket]
	if !ok {
		st = &bucketStats{}
		h.stats[bucket] = st
		h.order = append(h.order, bucket)
	}
	st.count++
	st.saturation = saturation
}

// Len returns the number of distinct buckets.
func (h *Histogram) Len() int {
	return len(h.order)
}

// Lookup returns the count and stored saturation of a bucket.
func (h *Histogram) Lookup(bucket RGB) (count int, saturation float64, ok bool) {
	st, ok := h.stats[bucket]
	if !ok {
		return 0, 0, false
	}
	return st.count, st.saturation, true
}

// Rank returns buckets sorted by count*saturation, highest first,
// truncated to limit entries. A non-positive limit returns all buckets.
func (h *Histogram) Rank(limit int) []Candidate {
	candidates := make([]Candidate, 0, len(h.order))
	for _, bucket := range h.order {
		st := h.stats[bucket]
		candidates = append(candidates, Candidate{
			Bucket:     bucket,
			Count:      st.count,
			Saturation: st.saturation,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score() > candidates[j].Score()
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
