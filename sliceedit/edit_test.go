package sliceedit

import (
	"reflect"
	"testing"
)

func TestFindAll(t *testing.T) {
	tests := []struct {
		name string
		buf  string
		item string
		want []int
	}{
		{name: "empty item", buf: "abc", item: "", want: []int{}},
		{name: "no match", buf: "abc", item: "x", want: []int{}},
		{name: "several", buf: "a_b_c", item: "_", want: []int{1, 3}},
		{name: "non overlapping", buf: "aaaa", item: "aa", want: []int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindAll([]byte(tt.buf), tt.item); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindAll() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReplaceAllStringUsesOriginalText(t *testing.T) {
	b := NewBuffer([]byte(`a\b{c}`))
	b.ReplaceAllString(`\`, `\textbackslash{}`)
	b.ReplaceAllString(`{`, `\{`)
	b.ReplaceAllString(`}`, `\}`)

	want := `a\textbackslash{}b\{c\}`
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestReplaceSkipsOverlaps(t *testing.T) {
	b := NewBuffer([]byte("abcd"))
	if !b.Replace(1, 3, "X") {
		t.Fatal("first replace should be queued")
	}
	if b.Replace(2, 4, "Y") {
		t.Error("overlapping replace should be rejected")
	}
	if n := b.ReplaceAllString("d", "D"); n != 1 {
		t.Errorf("ReplaceAllString() = %d, want 1", n)
	}
	if got := b.String(); got != "aXD" {
		t.Errorf("String() = %q, want %q", got, "aXD")
	}
}
