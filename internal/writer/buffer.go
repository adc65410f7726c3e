package writer

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/studiomdl/internal/diag"
)

// ErrBufferOverflow is returned when a write would exceed the buffer
// capacity.
var ErrBufferOverflow = diag.Limit("output buffer overflow")

// Buffer is a fixed-capacity, append-only little-endian byte region.
// Offsets returned by its methods are relative to the start of the buffer.
type Buffer struct {
	data  []byte
	limit int
}

// NewBuffer returns an empty buffer that holds at most capacity bytes.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, min(capacity, 1<<20)), limit: capacity}
}

// Len returns the current write offset.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the written bytes.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) grow(n int) error {
	if len(b.data)+n > b.limit {
		return fmt.Errorf("%w: need %d bytes, capacity %d", ErrBufferOverflow, len(b.data)+n, b.limit)
	}
	return nil
}

// Reserve appends n zero bytes and returns their offset.
func (b *Buffer) Reserve(n int) (int, error) {
	if err := b.grow(n); err != nil {
		return 0, err
	}
	off := len(b.data)
	b.data = append(b.data, make([]byte, n)...)
	return off, nil
}

// Append encodes v at the end of the buffer and returns its offset. v must be
// a fixed-size value or a slice of fixed-size values.
func (b *Buffer) Append(v any) (int, error) {
	n := binary.Size(v)
	if n < 0 {
		return 0, fmt.Errorf("writer: cannot encode %T", v)
	}
	if err := b.grow(n); err != nil {
		return 0, err
	}
	off := len(b.data)
	var err error
	b.data, err = binary.Append(b.data, binary.LittleEndian, v)
	return off, err
}

// PutAt encodes v over previously written bytes at off.
func (b *Buffer) PutAt(off int, v any) error {
	n := binary.Size(v)
	if n < 0 || off < 0 || off+n > len(b.data) {
		return fmt.Errorf("writer: cannot put %T at %d", v, off)
	}
	_, err := binary.Encode(b.data[off:], binary.LittleEndian, v)
	return err
}

// Align pads the buffer with zeros to the next multiple of 4.
func (b *Buffer) Align() error {
	if pad := (4 - len(b.data)%4) % 4; pad > 0 {
		_, err := b.Reserve(pad)
		return err
	}
	return nil
}
