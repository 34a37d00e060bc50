package rules

// LaTeXName is the name of the built-in LaTeX preset.
const LaTeXName = "latex"

// LaTeX returns the built-in LaTeX preset.
func LaTeX() Preset {
	var r []Rule

	// Blocks that never appear as prose in the compiled document.
	for _, env := range []string{"comment", "lstlisting", "verbatim", "minted", "figure", "table"} {
		r = append(r, RangeRule{
			Start:         `\begin{` + env + `}`,
			End:           `\end{` + env + `}`,
			IncludeNested: true,
		})
	}

	for _, name := range []string{"section", "subsection", "subsubsection", "chapter", "paragraph", "subparagraph"} {
		c := Keep(name, 1)
		c.HasOptionalArg = true
		r = append(r, c)
	}
	for _, name := range []string{"textbf", "textit", "textsl", "textsc", "textrm", "textsf", "texttt", "emph", "underline"} {
		r = append(r, Keep(name, 1))
	}

	footnote := Keep("footnote", 1)
	footnote.Prefix = "footnote, "
	marginpar := Keep("marginpar", 1)
	marginpar.Prefix = "margin note, "
	r = append(r,
		footnote,
		marginpar,
		CommandRule{Name: "item", HasOptionalArg: true},
		Keep("title", 1),
		Keep("author", 1),
		Keep("date", 1),
	)

	// Reference, citation and preamble commands read as nothing.
	for _, name := range []string{"label", "ref", "eqref", "pageref"} {
		r = append(r, Drop(name, 1))
	}
	for _, name := range []string{"ce", "cite", "citet", "citep", "citeauthor", "citeyear"} {
		c := Drop(name, 1)
		c.HasOptionalArg = true
		r = append(r, c)
	}
	for _, name := range []string{"url", "input", "include"} {
		r = append(r, Drop(name, 1))
	}
	includegraphics := Drop("includegraphics", 1)
	includegraphics.HasOptionalArg = true
	r = append(r, includegraphics, Drop("bibliography", 1), Drop("bibliographystyle", 1))

	for _, name := range []string{"usepackage", "documentclass"} {
		c := Drop(name, 1)
		c.HasOptionalArg = true
		r = append(r, c)
	}
	for _, name := range []string{"newcommand", "renewcommand"} {
		c := Drop(name, 2)
		c.HasOptionalArg = true
		r = append(r, c)
	}
	r = append(r,
		Drop("setlength", 2),
		Drop("setcounter", 2),
		// \href{url}{text} reads the text, \ruby{base}{reading} the base.
		CommandRule{Name: "href", ArgCount: 2, ArgMask: []bool{false, true}},
		CommandRule{Name: "ruby", ArgCount: 2, ArgMask: []bool{true, false}},
	)

	r = append(r,
		// % comments, but not \%.
		ExcludeRule{Pattern: `(?<!\\)%.*$`, Regex: true, Flags: "gm"},
		ExcludeRule{Pattern: `\\(begin|end)\{[^}]+\}(\[[^\]]*\])?`, Regex: true, Flags: "g"},
		ExcludeRule{Pattern: `\$+`, Regex: true, Flags: "g"},
		ExcludeRule{Pattern: `\\\[|\\\]`, Regex: true, Flags: "g"},
		ExcludeRule{Pattern: `\\\(|\\\)`, Regex: true, Flags: "g"},
		ExcludeRule{Pattern: `\\\\(\[[^\]]*\])?`, Regex: true, Flags: "g"},
		ExcludeRule{Pattern: `\\(hspace|vspace|hfill|vfill|quad|qquad|,|;|!|\s)\*?(\{[^}]*\})?`, Regex: true, Flags: "g"},
	)

	for _, s := range latexSymbols {
		r = append(r, Literal(`\`+s[0], s[1]))
	}
	r = append(r, Literal("~", " "))

	return Preset{
		Name:         LaTeXName,
		Description:  "LaTeX documents",
		FilePatterns: []string{"*.tex", "*.ltx", "*.sty", "*.cls"},
		Rules:        r,
	}
}

// latexSymbols maps command names to their spoken form. A name must come
// before any other name it is a prefix of.
var latexSymbols = [][2]string{
	{"alpha", "alpha"},
	{"beta", "beta"},
	{"gamma", "gamma"},
	{"delta", "delta"},
	{"epsilon", "epsilon"},
	{"varepsilon", "epsilon"},
	{"zeta", "zeta"},
	{"eta", "eta"},
	{"theta", "theta"},
	{"vartheta", "theta"},
	{"iota", "iota"},
	{"kappa", "kappa"},
	{"lambda", "lambda"},
	{"mu", "mu"},
	{"nu", "nu"},
	{"xi", "xi"},
	{"pi", "pi"},
	{"varpi", "pi"},
	{"rho", "rho"},
	{"varrho", "rho"},
	{"sigma", "sigma"},
	{"varsigma", "sigma"},
	{"tau", "tau"},
	{"upsilon", "upsilon"},
	{"phi", "phi"},
	{"varphi", "phi"},
	{"chi", "chi"},
	{"psi", "psi"},
	{"omega", "omega"},

	{"Gamma", "Gamma"},
	{"Delta", "Delta"},
	{"Theta", "Theta"},
	{"Lambda", "Lambda"},
	{"Xi", "Xi"},
	{"Pi", "Pi"},
	{"Sigma", "Sigma"},
	{"Upsilon", "Upsilon"},
	{"Phi", "Phi"},
	{"Psi", "Psi"},
	{"Omega", "Omega"},

	{"ldots", "..."},
	{"cdots", "..."},
	{"dots", "..."},

	{"neq", "not equal to"},
	{"approx", "approximately equal to"},
	{"leq", "less than or equal to"},
	{"geq", "greater than or equal to"},
	{"times", "times"},
	{"div", "divided by"},
	{"pm", "plus or minus"},
	{"mp", "minus or plus"},
	{"infty", "infinity"},
	{"partial", "partial"},
	{"nabla", "nabla"},
	{"sum", "sum"},
	{"prod", "product"},
	{"int", "integral"},
	{"oint", "contour integral"},
	{"rightarrow", "right arrow"},
	{"leftarrow", "left arrow"},
	{"Rightarrow", "implies"},
	{"Leftarrow", "implied by"},
	{"Leftrightarrow", "if and only if"},
	{"forall", "for all"},
	{"exists", "there exists"},
	{"in", "in"},
	{"notin", "not in"},
	{"subseteq", "subset or equal to"},
	{"supseteq", "superset or equal to"},
	{"subset", "subset of"},
	{"supset", "superset of"},
	{"cup", "union"},
	{"cap", "intersection"},
	{"emptyset", "empty set"},
	{"cdot", "dot"},
	{"equiv", "equivalent to"},
	{"propto", "proportional to"},
	{"perp", "perpendicular to"},
	{"parallel", "parallel to"},

	{"&", "and"},
	{"%", "percent"},
	{"#", "hash"},
	{"_", "underscore"},
	{"{", "{"},
	{"}", "}"},
	{"textbackslash", "backslash"},
}
