package rite

import (
	"fmt"
	"strconv"
)

// ByteRenderer accumulates rendered output in a byte slice.
type ByteRenderer struct {
	buf []byte
}

// Render appends the textual form of each argument.
func (br *ByteRenderer) Render(args ...any) {
	for _, a := range args {
		switch v := a.(type) {
		case string:
			br.buf = append(br.buf, v...)
		case []byte:
			br.buf = append(br.buf, v...)
		case byte:
			br.buf = append(br.buf, v)
		case int:
			br.buf = strconv.AppendInt(br.buf, int64(v), 10)
		default:
			br.buf = fmt.Append(br.buf, v)
		}
	}
}

// Renderln is like Render but adds a newline at the end.
func (br *ByteRenderer) Renderln(args ...any) {
	br.Render(args...)
	br.buf = append(br.buf, '\n')
}

// Bytes returns the underlying slice. It is only valid until the next Render.
func (br *ByteRenderer) Bytes() []byte {
	return br.buf
}

// CloneBytes returns a copy of the rendered bytes.
func (br *ByteRenderer) CloneBytes() []byte {
	c := make([]byte, len(br.buf))
	copy(c, br.buf)
	return c
}

// String returns the rendered output as a string.
func (br *ByteRenderer) String() string {
	return string(br.buf)
}
