package format

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hesusruiz/amsthm/amsthm"
	"github.com/hesusruiz/amsthm/rite"
)

const (
	// globalCounter is shared by the global style environments in shared mode
	globalCounter = "amsthm"
	// sectionCounter is shared by the section style environments in shared mode
	sectionCounter = "amsthmsec"
	// prefixMacro expands to the current section identifier and a dot,
	// or to nothing before the first section
	prefixMacro = `\amsthmprefix`
)

// LaTeX is the typeset-command adapter.
// Section style counters follow the sections found by the numbering engine,
// not the sectioning commands of the document class.
type LaTeX struct {
	cfg *amsthm.Config
}

func NewLaTeX(cfg *amsthm.Config) *LaTeX {
	return &LaTeX{cfg: cfg}
}

func (l *LaTeX) Name() string {
	return "latex"
}

// counterOf returns the LaTeX counter an environment steps.
func (l *LaTeX) counterOf(env *amsthm.Environment) string {
	if l.cfg.Sharing == amsthm.Independent {
		return env.OutputName
	}
	if env.NumberingStyle == amsthm.GlobalStyle {
		return globalCounter
	}
	return sectionCounter
}

// sectionCounters returns the counters restarted at every section.
func (l *LaTeX) sectionCounters() []string {
	if l.cfg.Sharing == amsthm.Shared {
		return []string{sectionCounter}
	}
	var list []string
	for _, env := range l.cfg.Environments {
		if env.Numbered && env.NumberingStyle == amsthm.SectionStyle {
			list = append(list, env.OutputName)
		}
	}
	return list
}

// scopeCounter returns the LaTeX counter of a global bucket of the engine.
func (l *LaTeX) scopeCounter(scope string) (string, bool) {
	if l.cfg.Sharing == amsthm.Shared {
		return globalCounter, scope == amsthm.SharedScope
	}
	env, found := l.cfg.Environment(scope)
	if !found || !env.Numbered || env.NumberingStyle != amsthm.GlobalStyle {
		return "", false
	}
	return env.OutputName, true
}

func sectionPrefix(section string) string {
	if len(section) == 0 {
		return ""
	}
	return rite.EscapeLaTeX(section) + "."
}

// Block replaces the block with the environment begin command, its content and
// the end command. An override changes how the counter is printed for this
// instance only, and gives back the step the environment takes.
func (l *LaTeX) Block(n *rite.Node, lbl amsthm.Label) rite.Action {
	var begin strings.Builder

	if lbl.Override {
		counter := l.counterOf(lbl.Env)
		begin.WriteString(`{\renewcommand{\the` + counter + `}{` + rite.EscapeLaTeX(lbl.Number) + `}`)
		begin.WriteString(`\addtocounter{` + counter + `}{-1}`)
	}

	begin.WriteString(`\begin{` + lbl.Env.OutputName + `}`)
	if lbl.ExplicitTitle {
		// Braced, so a ']' in the title does not end the optional argument
		begin.WriteString("[{" + rite.EscapeLaTeX(lbl.Title) + "}]")
	}
	begin.WriteString(`\label{` + n.Id + `}`)

	end := `\end{` + lbl.Env.OutputName + `}`
	if lbl.Override {
		end += "}"
	}

	frag := rite.NewFragment(rite.NewRaw(l.Name(), begin.String(), false))
	frag.ReparentChildren(n)
	frag.AppendChild(rite.NewRaw(l.Name(), end+"\n", false))
	return rite.ReplaceNode(frag)
}

// Reference becomes a hyperlink to the label of the block. The references the engine
// does not know are left to the LaTeX reference system.
func (l *LaTeX) Reference(ref *rite.Node, res amsthm.ResolvedReference, ok bool) rite.Action {
	if !ok {
		return rite.ReplaceNode(rite.NewRaw(l.Name(), `\ref{`+res.Target+`}`, true))
	}

	text := rite.EscapeLaTeX(res.Prefix)
	if len(res.Number) > 0 {
		text += "~" + rite.EscapeLaTeX(res.Number)
	}
	return rite.ReplaceNode(rite.NewRaw(l.Name(), `\hyperref[`+res.Target+`]{`+text+`}`, true))
}

// Section restarts the section counters right before the heading, and makes
// their numbers start with the new section identifier.
func (l *LaTeX) Section(n *rite.Node, section string) rite.Action {
	var b strings.Builder
	b.WriteString(`\renewcommand{` + prefixMacro + `}{` + sectionPrefix(section) + `}`)
	for _, counter := range l.sectionCounters() {
		b.WriteString(`\setcounter{` + counter + `}{0}`)
	}
	return rite.ReplaceWith(rite.NewRaw(l.Name(), b.String(), false), n)
}

// Header declares the environments. In shared mode they step two common counters,
// and the theorem environments of the document class are made to step them too.
// The global counters restart where the previous chapters left them.
func (l *LaTeX) Header(cfg *amsthm.Config, start amsthm.Start) []string {
	lines := []string{`\newcommand{` + prefixMacro + `}{` + sectionPrefix(start.Section) + `}`}

	if cfg.Sharing == amsthm.Shared {
		lines = append(lines,
			`\newcounter{`+globalCounter+`}`,
			`\newcounter{`+sectionCounter+`}`,
			`\renewcommand{\the`+sectionCounter+`}{`+prefixMacro+`\arabic{`+sectionCounter+`}}`,
		)
	}

	for _, env := range cfg.Environments {
		name := rite.EscapeLaTeX(env.Name)
		switch {
		case !env.Numbered:
			lines = append(lines, `\newtheorem*{`+env.OutputName+`}{`+name+`}`)
		case cfg.Sharing == amsthm.Shared:
			lines = append(lines, `\newtheorem{`+env.OutputName+`}[`+l.counterOf(env)+`]{`+name+`}`)
		default:
			lines = append(lines, `\newtheorem{`+env.OutputName+`}{`+name+`}`)
			if env.NumberingStyle == amsthm.SectionStyle {
				lines = append(lines, `\renewcommand{\the`+env.OutputName+`}{`+prefixMacro+`\arabic{`+env.OutputName+`}}`)
			}
		}
	}

	scopes := make([]string, 0, len(start.Counters))
	for scope := range start.Counters {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	for _, scope := range scopes {
		counter, found := l.scopeCounter(scope)
		if !found || start.CounterFor(scope) == 0 {
			continue
		}
		lines = append(lines, `\setcounter{`+counter+`}{`+strconv.Itoa(start.CounterFor(scope))+`}`)
	}

	if cfg.Sharing == amsthm.Shared {
		lines = append(lines, `\makeatletter`)
		for _, builtin := range amsthm.ReservedOutputNames {
			if builtin == "proof" {
				continue
			}
			lines = append(lines, `\@ifundefined{c@`+builtin+`}{}{\let\c@`+builtin+`\c@`+sectionCounter+`\let\the`+builtin+`\the`+sectionCounter+`}`)
		}
		lines = append(lines, `\makeatother`)
	}

	return lines
}
