// Package anim quantizes animation tracks and packs them into the
// run-length value streams the engine decodes per frame.
package anim

// Kind tags a stream record.
type Kind uint8

const (
	// CountPair opens a run: Valid explicit samples follow, the last one
	// repeating until Total frames are covered.
	CountPair Kind = iota
	// Sample is one explicit quantized value.
	Sample
)

const maxRun = 255

// Value is one record of a stream. It is packed into a 16-bit word only on
// serialization.
type Value struct {
	Kind   Kind
	Valid  uint8
	Total  uint8
	Sample int16
}

// Word returns the record's wire form.
func (v Value) Word() uint16 {
	if v.Kind == CountPair {
		return uint16(v.Valid) | uint16(v.Total)<<8
	}
	return uint16(v.Sample)
}

// Stream is the encoded track of one channel. A nil stream means the channel
// stays at the bone default.
type Stream []Value

// Words returns the stream's wire form.
func (s Stream) Words() []uint16 {
	w := make([]uint16, len(s))
	for i, v := range s {
		w[i] = v.Word()
	}
	return w
}

// Encode packs quantized per-frame values. A new record starts when a run
// reaches 255 frames. A value is stored explicitly when it differs from the
// last stored one, or when the record holds only explicit values and the
// next frame changes again. A repeating record is closed before a new explicit
// value is stored.
//
// A channel that never leaves zero encodes to nil.
func Encode(values []int16) Stream {
	if len(values) == 0 {
		return nil
	}
	s := Stream{{Kind: CountPair, Valid: 1, Total: 1}, {Kind: Sample, Sample: values[0]}}
	count := 0
	for m := 1; m < len(values); m++ {
		switch {
		case s[count].Total == maxRun:
			count = len(s)
			s = append(s, Value{Kind: CountPair, Valid: 1}, Value{Kind: Sample, Sample: values[m]})
		case values[m] != s[len(s)-1].Sample ||
			(s[count].Total == s[count].Valid && m < len(values)-1 && values[m] != values[m+1]):
			if s[count].Total != s[count].Valid {
				count = len(s)
				s = append(s, Value{Kind: CountPair})
			}
			s[count].Valid++
			s = append(s, Value{Kind: Sample, Sample: values[m]})
		}
		s[count].Total++
	}
	if len(s) == 2 && values[0] == 0 {
		return nil
	}
	return s
}

// Decode returns the value of frame the way the engine looks it up.
// Frames past the end of the stream and nil streams decode to 0.
func Decode(s Stream, frame int) int16 {
	k, pos := frame, 0
	for pos < len(s) {
		c := s[pos]
		total, valid := int(c.Total), int(c.Valid)
		if total == 0 {
			return 0
		}
		if total > k {
			idx := valid
			if valid > k {
				idx = k + 1
			}
			if pos+idx >= len(s) {
				return 0
			}
			return s[pos+idx].Sample
		}
		k -= total
		pos += valid + 1
	}
	return 0
}
