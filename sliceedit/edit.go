// Copyright 2023 Jesus Ruiz. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package sliceedit extends the functionalities of rsc.io/edit to
// implement eficient buffered editing of byte slices.
// All edits refer to positions in the original data and are applied at once,
// so the text inserted by one edit is never matched by another.
package sliceedit

import (
	"bytes"

	"rsc.io/edit"
)

// A Buffer is a queue of edits to apply to a given byte slice.
type Buffer struct {
	ed  *edit.Buffer
	buf []byte

	// taken marks the bytes of buf already covered by a queued edit
	taken []bool
}

// NewBuffer returns a new buffer to accumulate changes to an initial data slice.
// The returned buffer maintains a reference to the data, so the caller must ensure
// the data is not modified until after the Buffer is done being used.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{
		ed:    edit.NewBuffer(buf),
		buf:   buf,
		taken: make([]bool, len(buf)),
	}
}

// FindAll finds all non-overlapping instances of item in buf.
func FindAll(buf []byte, item string) []int {
	found := []int{}

	if len(item) == 0 {
		return found
	}

	realOffset := 0
	for {
		i := bytes.Index(buf, []byte(item))
		if i == -1 {
			return found
		}
		found = append(found, i+realOffset)
		buf = buf[i+len(item):]
		realOffset = realOffset + i + len(item)
	}
}

// Replace queues the replacement of buf[start:end] by new.
// It reports false, queuing nothing, when the range overlaps an edit queued before.
func (b *Buffer) Replace(start, end int, new string) bool {
	for i := start; i < end; i++ {
		if b.taken[i] {
			return false
		}
	}
	for i := start; i < end; i++ {
		b.taken[i] = true
	}
	b.ed.Replace(start, end, new)
	return true
}

// ReplaceAllString queues the replacement of every instance of old by new.
// Instances overlapping earlier edits are left alone.
// It returns the number of replacements queued.
func (b *Buffer) ReplaceAllString(old string, new string) int {
	count := 0
	for _, hit := range FindAll(b.buf, old) {
		if b.Replace(hit, hit+len(old), new) {
			count++
		}
	}
	return count
}

// Bytes returns a new byte slice containing the original data
// with the queued edits applied.
func (b *Buffer) Bytes() []byte {
	return b.ed.Bytes()
}

// String returns a string containing the original data
// with the queued edits applied.
func (b *Buffer) String() string {
	return string(b.ed.Bytes())
}
