package tags

import "bytes"

// LineStart returns the byte offset of the first byte of the 1-based line.
// Line 1 starts at 0. A line past the last newline, or below 1, also
// yields 0; callers get a usable if imprecise location rather than an error.
func LineStart(src []byte, line int) int {
	if line <= 1 {
		return 0
	}
	seen := 1
	off := 0
	for {
		i := bytes.IndexByte(src[off:], '\n')
		if i < 0 {
			return 0
		}
		off += i + 1
		seen++
		if seen == line {
			return off
		}
	}
}

// LineIndex answers LineStart queries for one file without rescanning it.
type LineIndex struct {
	starts []int
}

// NewLineIndex records the start offset of every line in src.
func NewLineIndex(src []byte) *LineIndex {
	starts := make([]int, 1, bytes.Count(src, []byte{'\n'})+1)
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Start returns the same value as LineStart for the indexed source.
func (x *LineIndex) Start(line int) int {
	if line < 1 || line > len(x.starts) {
		return 0
	}
	return x.starts[line-1]
}

// Lines returns the number of line starts, one more than the newline count.
func (x *LineIndex) Lines() int {
	return len(x.starts)
}
