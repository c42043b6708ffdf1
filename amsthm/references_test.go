package amsthm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceTable(t *testing.T) {
	table := NewReferenceTable()
	require.NoError(t, table.Add("thm-prm-b", Entry{DisplayNumber: "2", EnvKey: "prm"}))
	require.NoError(t, table.Add("thm-prm-a", Entry{DisplayNumber: "1", EnvKey: "prm"}))

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"thm-prm-a", "thm-prm-b"}, table.IDs())

	table.Freeze()
	assert.Error(t, table.Add("thm-prm-c", Entry{}))

	e, found := table.Lookup("thm-prm-b")
	assert.True(t, found)
	assert.Equal(t, "2", e.DisplayNumber)
}

func TestResolver_Resolve(t *testing.T) {
	env := newEnv("prm", "Problem", GlobalStyle)
	ids := NewCanonicalizer("thm")
	ids.Canonicalize("prm-a", env)

	table := NewReferenceTable()
	table.Add("thm-prm-a", Entry{DisplayNumber: "1", EnvKey: "prm", ReferencePrefix: "Problem", OriginFile: "ch2.rite"})
	table.Add("thm-prm-old", Entry{DisplayNumber: "4", EnvKey: "prm", ReferencePrefix: "Pb.", OriginFile: "ch1.rite"})
	table.Add("thm-rmk-a", Entry{EnvKey: "rmk", ReferencePrefix: "Remark", OriginFile: "ch2.rite"})
	table.Freeze()

	r := NewResolver(table, ids, "ch2.rite")

	tests := []struct {
		name   string
		target string
		want   ResolvedReference
		wantOk bool
	}{
		{
			name:   "original identifier",
			target: "prm-a",
			want:   ResolvedReference{Text: "Problem 1", Prefix: "Problem", Number: "1", Target: "thm-prm-a"},
			wantOk: true,
		},
		{
			name:   "canonical identifier",
			target: "thm-prm-a",
			want:   ResolvedReference{Text: "Problem 1", Prefix: "Problem", Number: "1", Target: "thm-prm-a"},
			wantOk: true,
		},
		{
			name:   "block of another chapter",
			target: "prm-old",
			want:   ResolvedReference{Text: "Pb. 4", Prefix: "Pb.", Number: "4", Target: "thm-prm-old", CrossFile: "ch1.rite"},
			wantOk: true,
		},
		{
			name:   "unnumbered block",
			target: "thm-rmk-a",
			want:   ResolvedReference{Text: "Remark", Prefix: "Remark", Target: "thm-rmk-a"},
			wantOk: true,
		},
		{
			name:   "unknown identifier",
			target: "prm-zzz",
			want:   ResolvedReference{Target: "prm-zzz"},
			wantOk: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.target)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
