package studio

import (
	"encoding/binary"
	"fmt"
)

// DecodeAnimValue returns the sample for frame from a run-length value stream
// starting at offset in data. Each stream word is either a {valid, total}
// count pair or a signed 16-bit sample; a count pair is followed by `valid`
// samples, and the last of them repeats until `total` frames are covered.
func DecodeAnimValue(data []byte, offset int, frame int) (int16, error) {
	word := func(i int) (uint16, error) {
		p := offset + i*2
		if p < 0 || p+2 > len(data) {
			return 0, fmt.Errorf("%w: anim value at %d", ErrTruncated, p)
		}
		return binary.LittleEndian.Uint16(data[p:]), nil
	}

	k := frame
	pos := 0
	for {
		w, err := word(pos)
		if err != nil {
			return 0, err
		}
		valid, total := int(w&0xff), int(w>>8)
		if total == 0 {
			return 0, fmt.Errorf("%w: zero-length run at %d", ErrBadSection, offset+pos*2)
		}
		if total > k {
			idx := valid
			if valid > k {
				idx = k + 1
			}
			v, err := word(pos + idx)
			if err != nil {
				return 0, err
			}
			return int16(v), nil
		}
		k -= total
		pos += valid + 1
	}
}
