package format

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/hesusruiz/amsthm/amsthm"
	"github.com/hesusruiz/amsthm/rite"
	"github.com/hesusruiz/amsthm/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile parses src, numbers it for the output format and renders it the way the command does
func compile(t *testing.T, to, file, src string, store state.Store) (string, *amsthm.Result) {
	t.Helper()

	p, err := rite.ParseFromBytes(file, []byte(src))
	require.NoError(t, err)
	cfg, err := amsthm.LoadConfig(p.Config, p.FrontMatter)
	require.NoError(t, err)
	adapter, err := New(to, cfg)
	require.NoError(t, err)

	result, err := amsthm.Compile(p.Document(), cfg, adapter, amsthm.Options{File: file, Store: store})
	require.NoError(t, err)

	var body []byte
	if to == "html" {
		body, err = rite.RenderHTML(p.Document())
	} else {
		body, err = rite.RenderLaTeX(p.Document())
	}
	require.NoError(t, err)

	var sb strings.Builder
	for _, line := range result.Header {
		sb.WriteString(line + "\n")
	}
	sb.Write(body)
	return sb.String(), result
}

var reSection = regexp.MustCompile(`^=== (\S+) ===$`)

type fixtureSection struct {
	name string
	body string
}

// readGolden splits a fixture in its '=== name ===' sections, in file order.
// A 'source' section is compiled and compared with the 'html' and 'latex' sections.
// Fixtures of several files name them 'source:<file>', 'html:<file>' and so on,
// and the files are compiled in order sharing one state store.
func readGolden(t *testing.T, path string) []fixtureSection {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var sections []fixtureSection
	var sb strings.Builder
	s := bufio.NewScanner(f)
	for s.Scan() {
		if m := reSection.FindStringSubmatch(s.Text()); m != nil {
			if len(sections) > 0 {
				sections[len(sections)-1].body = sb.String()
			}
			sections = append(sections, fixtureSection{name: m[1]})
			sb.Reset()
			continue
		}
		sb.WriteString(s.Text() + "\n")
	}
	require.NoError(t, s.Err())
	if len(sections) > 0 {
		sections[len(sections)-1].body = sb.String()
	}
	return sections
}

func findSection(sections []fixtureSection, name string) (string, bool) {
	for _, s := range sections {
		if s.name == name {
			return s.body, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txt"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		sections := readGolden(t, path)
		for _, to := range []string{"html", "latex"} {
			store := state.NewMemoryStore()
			for _, src := range sections {
				suffix, isSource := strings.CutPrefix(src.name, "source")
				if !isSource {
					continue
				}
				file := strings.TrimPrefix(suffix, ":")
				if len(file) == 0 {
					file = "doc.rite"
				}

				got, _ := compile(t, to, file, src.body, store)
				want, found := findSection(sections, to+suffix)
				if !found {
					continue
				}
				t.Run(filepath.Base(path)+"/"+to+suffix, func(t *testing.T) {
					assert.Equal(t, normalize(want), normalize(got))
				})
			}
		}
	}
}

func TestNew(t *testing.T) {
	cfg, err := amsthm.NewConfig(amsthm.Shared)
	require.NoError(t, err)

	a, err := New("html", cfg)
	require.NoError(t, err)
	assert.Equal(t, "html", a.Name())

	a, err = New("tex", cfg)
	require.NoError(t, err)
	assert.Equal(t, "latex", a.Name())

	_, err = New("docx", cfg)
	assert.Error(t, err)
}

func TestHTML_Block(t *testing.T) {
	env := &amsthm.Environment{Key: "prm", Name: "Problem", Numbered: true}
	tests := []struct {
		name       string
		display    amsthm.OverrideDisplay
		label      amsthm.Label
		wantName   string
		wantNumber string
	}{
		{"standard", amsthm.DisplayLiteral, amsthm.Label{Env: env, Number: "3"}, "Problem", "3"},
		{"titled", amsthm.DisplayLiteral, amsthm.Label{Env: env, Number: "1.2", Title: "Fermat", ExplicitTitle: true}, "Fermat", "1.2"},
		{"literal override", amsthm.DisplayLiteral, amsthm.Label{Env: env, Number: "A1", Override: true}, "Problem", "A1"},
		{"hidden override", amsthm.DisplayTitleOnly, amsthm.Label{Env: env, Number: "A1", Override: true}, "Problem", ""},
		{"unnumbered", amsthm.DisplayLiteral, amsthm.Label{Env: env}, "Problem", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HTML{display: tt.display}
			n := &rite.Node{Type: rite.BlockNode, Name: "div", Id: "thm-prm-a"}

			action := h.Block(n, tt.label)
			assert.Equal(t, rite.Keep, action.Kind)
			assert.Equal(t, []string{"theorem", "prm"}, n.Classes)

			name, _ := n.Attribute("name")
			assert.Equal(t, tt.wantName, name)
			number, found := n.Attribute("data-number")
			assert.Equal(t, tt.wantNumber, number)
			assert.Equal(t, len(tt.wantNumber) > 0, found)
		})
	}
}

func TestHTML_CrossFileReference(t *testing.T) {
	store := state.NewMemoryStore()
	front := "---\nbook:\n  id: calc\n  chapter: \"%s\"\ncustom-amsthm:\n  - key: prm\n    name: Problem\n    numbering-style: global\n---\n"

	_, _ = compile(t, "html", "chapters/limits.rite", strings.Replace(front, "%s", "1", 1)+"\n<div #prm-a>\n    One.\n", store)
	out, result := compile(t, "html", "chapters/series.rite", strings.Replace(front, "%s", "2", 1)+"\nBy <x-ref \"prm-a\">.\n", store)

	assert.Empty(t, result.Diagnostics)
	assert.Contains(t, out, `<a href="limits.html#thm-prm-a" class="xref">Problem 1</a>`)
}

func TestLaTeX_Header(t *testing.T) {
	envs := func() []*amsthm.Environment {
		return []*amsthm.Environment{
			{Key: "prm", Name: "Problem", Numbered: true, NumberingStyle: amsthm.SectionStyle},
			{Key: "axm", Name: "Axiom & co", Numbered: true, NumberingStyle: amsthm.GlobalStyle},
			{Key: "rmx", Name: "Note", OutputName: "note", Numbered: false},
		}
	}

	t.Run("independent", func(t *testing.T) {
		cfg, err := amsthm.NewConfig(amsthm.Independent, envs()...)
		require.NoError(t, err)

		assert.Equal(t, []string{
			`\newcommand{\amsthmprefix}{}`,
			`\newtheorem{prm}{Problem}`,
			`\renewcommand{\theprm}{\amsthmprefix\arabic{prm}}`,
			`\newtheorem{axm}{Axiom \& co}`,
			`\newtheorem*{note}{Note}`,
		}, NewLaTeX(cfg).Header(cfg, amsthm.Start{}))
	})

	t.Run("independent book", func(t *testing.T) {
		cfg, err := amsthm.NewConfig(amsthm.Independent, envs()...)
		require.NoError(t, err)
		cfg.Book = true
		cfg.Chapter = "3"

		header := NewLaTeX(cfg).Header(cfg, amsthm.Start{Section: "3", Counters: map[string]int{"axm": 4, "prm": 9, "rmx": 1}})
		assert.Equal(t, `\newcommand{\amsthmprefix}{3.}`, header[0])
		assert.Equal(t, `\setcounter{axm}{4}`, header[len(header)-1])
		assert.NotContains(t, strings.Join(header, "\n"), `\setcounter{prm}`)
		assert.NotContains(t, strings.Join(header, "\n"), `\setcounter{note}`)
	})

	t.Run("shared book", func(t *testing.T) {
		cfg, err := amsthm.NewConfig(amsthm.Shared, envs()...)
		require.NoError(t, err)
		cfg.Book = true
		cfg.Chapter = "2"

		header := NewLaTeX(cfg).Header(cfg, amsthm.Start{Section: "2", Counters: map[string]int{amsthm.SharedScope: 5}})
		assert.Equal(t, `\newcommand{\amsthmprefix}{2.}`, header[0])
		assert.Contains(t, header, `\newcounter{amsthmsec}`)
		assert.Contains(t, header, `\renewcommand{\theamsthmsec}{\amsthmprefix\arabic{amsthmsec}}`)
		assert.Contains(t, header, `\newtheorem{prm}[amsthmsec]{Problem}`)
		assert.Contains(t, header, `\newtheorem{axm}[amsthm]{Axiom \& co}`)
		assert.Contains(t, header, `\setcounter{amsthm}{5}`)
		assert.Contains(t, header, `\@ifundefined{c@lemma}{}{\let\c@lemma\c@amsthmsec\let\thelemma\theamsthmsec}`)
		assert.NotContains(t, strings.Join(header, "\n"), `c@proof`)
	})
}

func TestLaTeX_SectionsFollowTheNumbering(t *testing.T) {
	out, result := compile(t, "latex", "doc.rite", `---
custom-amsthm:
  - key: thr
    name: Thm
---

## Intro

<div #thr-a>
    One.

## Two

<div #thr-b>
    Two.
`, nil)

	require.Len(t, result.Labels, 2)
	assert.Equal(t, "1.1", result.Labels[0].Number)
	assert.Equal(t, "2.1", result.Labels[1].Number)

	first := strings.Index(out, `\renewcommand{\amsthmprefix}{1.}\setcounter{amsthmsec}{0}`)
	second := strings.Index(out, `\renewcommand{\amsthmprefix}{2.}\setcounter{amsthmsec}{0}`)
	intro := strings.Index(out, `\section{Intro}`)
	blockA := strings.Index(out, `\begin{thr}\label{thm-thr-a}`)
	require.True(t, first >= 0 && second >= 0 && intro >= 0 && blockA >= 0, out)
	assert.Less(t, first, intro)
	assert.Less(t, intro, blockA)
	assert.Less(t, blockA, second)
	assert.NotContains(t, out, `\subsection`)
}

func TestLaTeX_TitleWithBracket(t *testing.T) {
	env := &amsthm.Environment{Key: "prm", Name: "Problem", Numbered: true}
	cfg, err := amsthm.NewConfig(amsthm.Shared, env)
	require.NoError(t, err)

	n := &rite.Node{Type: rite.BlockNode, Name: "div", Id: "thm-prm-a"}
	action := NewLaTeX(cfg).Block(n, amsthm.Label{Env: env, Number: "1", Title: "f]", ExplicitTitle: true})
	require.Equal(t, rite.Replace, action.Kind)

	begin := action.Nodes[0].FirstChild
	assert.Equal(t, `\begin{prm}[{f]}]\label{thm-prm-a}`, begin.Text)
}

func TestHTML_Section(t *testing.T) {
	cfg, err := amsthm.NewConfig(amsthm.Shared)
	require.NoError(t, err)

	h := &rite.Node{Type: rite.HeadingNode, Level: 2}
	action := NewHTML(cfg).Section(h, "7")
	assert.Equal(t, rite.Keep, action.Kind)
	section, _ := h.Attribute("data-section")
	assert.Equal(t, "7", section)
}

func TestLaTeX_OverrideInIndependentMode(t *testing.T) {
	out, _ := compile(t, "latex", "doc.rite", `---
amsthm:
  counter-sharing: independent
custom-amsthm:
  - key: prm
    name: Problem
    latex-name: problem
---

# Limits

<div #prm-a =7 title="Cauchy_criterion">
    Body.
`, nil)

	assert.Contains(t, out, `{\renewcommand{\theproblem}{7}\addtocounter{problem}{-1}\begin{problem}[{Cauchy\_criterion}]\label{thm-prm-a}`)
	assert.Contains(t, out, `\end{problem}}`)
	assert.Contains(t, out, `\newtheorem{problem}{Problem}`)
	assert.Contains(t, out, `\renewcommand{\theproblem}{\amsthmprefix\arabic{problem}}`)
	assert.Contains(t, out, `\renewcommand{\amsthmprefix}{1.}\setcounter{problem}{0}`)
}
