// Package chunker implements the video chunk transfer protocol: a video's
// bytes are split into a small fixed number of contiguous ranges and sent
// strictly in order against a server-issued upload URL.
package chunker

import "fmt"

// NumRanges is fixed by the server, which indexes chunks positionally and
// expects this exact part count.
const NumRanges = 4

// Range is one contiguous byte range, start inclusive, end exclusive.
type Range struct {
	Start int64
	End   int64
}

// Size ...
func (r Range) Size() int64 {
	return r.End - r.Start
}

// Plan splits totalBytes into exactly NumRanges contiguous ranges covering
// [0, totalBytes) with no gap or overlap. The first three ranges are
// floor(totalBytes/4) bytes each; the last absorbs the remainder.
func Plan(totalBytes int64) ([]Range, error) {
	if totalBytes < NumRanges {
		return nil, fmt.Errorf("video of %d bytes is too small to split into %d ranges", totalBytes, NumRanges)
	}

	rangeSize := totalBytes / NumRanges
	ranges := make([]Range, NumRanges)
	for i := int64(0); i < NumRanges; i++ {
		ranges[i] = Range{
			Start: i * rangeSize,
			End:   (i + 1) * rangeSize,
		}
	}
	ranges[NumRanges-1].End = totalBytes

	return ranges, nil
}
