package thesisaf

import "strings"

// GreekToLaTeX maps Greek letters to their LaTeX command fragments.
// Capitals that look identical to Latin letters (Alpha, Beta, ...) map to the
// plain letter, matching how LaTeX typesets them.
var GreekToLaTeX = map[rune]string{
	// Uppercase
	'Α': "A",         // Alpha
	'Β': "B",         // Beta
	'Γ': `\Gamma`,    // Gamma
	'Δ': `\Delta`,    // Delta
	'Ε': "E",         // Epsilon
	'Ζ': "Z",         // Zeta
	'Η': "H",         // Eta
	'Θ': `\Theta`,    // Theta
	'Ι': "I",         // Iota
	'Κ': "K",         // Kappa
	'Λ': `\Lambda`,   // Lambda
	'Μ': "M",         // Mu
	'Ν': "N",         // Nu
	'Ξ': `\Xi`,       // Xi
	'Ο': "O",         // Omicron
	'Π': `\Pi`,       // Pi
	'Ρ': "R",         // Rho
	'Σ': `\Sigma`,    // Sigma
	'Τ': "T",         // Tau
	'Υ': `\Upsilon`,  // Upsilon
	'Φ': `\Phi`,      // Phi
	'Χ': "X",         // Chi
	'Ψ': `\Psi`,      // Psi
	'Ω': `\Omega`,    // Omega
	'ϴ': `\Theta`,    // Theta symbol (capital variant)

	// Lowercase
	'α': `\alpha`,      // alpha
	'β': `\beta`,       // beta
	'γ': `\gamma`,      // gamma
	'δ': `\delta`,      // delta
	'ε': `\varepsilon`, // epsilon (curly form, the common print shape)
	'ϵ': `\epsilon`,    // epsilon (lunate symbol)
	'ζ': `\zeta`,       // zeta
	'η': `\eta`,        // eta
	'θ': `\theta`,      // theta
	'ϑ': `\vartheta`,   // theta variant
	'ι': `\iota`,       // iota
	'κ': `\kappa`,      // kappa
	'ϰ': `\varkappa`,   // kappa variant
	'λ': `\lambda`,     // lambda
	'μ': `\mu`,         // mu
	'ν': `\nu`,         // nu
	'ξ': `\xi`,         // xi
	'ο': "o",           // omicron
	'π': `\pi`,         // pi
	'ϖ': `\varpi`,      // pi variant
	'ρ': `\rho`,        // rho
	'ϱ': `\varrho`,     // rho variant
	'σ': `\sigma`,      // sigma
	'ς': `\varsigma`,   // final sigma
	'τ': `\tau`,        // tau
	'υ': `\upsilon`,    // upsilon
	'φ': `\varphi`,     // phi (open form)
	'ϕ': `\phi`,        // phi symbol
	'χ': `\chi`,        // chi
	'ψ': `\psi`,        // psi
	'ω': `\omega`,      // omega
}

// OperatorToLaTeX maps Unicode math operators and symbols to LaTeX fragments.
var OperatorToLaTeX = map[rune]string{
	// Large operators
	'∑': `\sum`,
	'∏': `\prod`,
	'∐': `\coprod`,
	'∫': `\int`,
	'∬': `\iint`,
	'∭': `\iiint`,
	'∮': `\oint`,

	// Binary operators
	'±': `\pm`,
	'∓': `\mp`,
	'×': `\times`,
	'÷': `\div`,
	'⋅': `\cdot`,
	'∗': `\ast`,
	'∘': `\circ`,
	'⊕': `\oplus`,
	'⊖': `\ominus`,
	'⊗': `\otimes`,
	'⊙': `\odot`,

	// Relations
	'≤': `\leq`,
	'≥': `\geq`,
	'≠': `\neq`,
	'≈': `\approx`,
	'≡': `\equiv`,
	'≅': `\cong`,
	'≃': `\simeq`,
	'∼': `\sim`,
	'∝': `\propto`,
	'≪': `\ll`,
	'≫': `\gg`,
	'≺': `\prec`,
	'≻': `\succ`,

	// Set theory and logic
	'∈': `\in`,
	'∉': `\notin`,
	'∋': `\ni`,
	'⊂': `\subset`,
	'⊃': `\supset`,
	'⊆': `\subseteq`,
	'⊇': `\supseteq`,
	'∪': `\cup`,
	'∩': `\cap`,
	'∅': `\emptyset`,
	'∖': `\setminus`,
	'∀': `\forall`,
	'∃': `\exists`,
	'∄': `\nexists`,
	'¬': `\neg`,
	'∧': `\wedge`,
	'∨': `\vee`,
	'∴': `\therefore`,
	'∵': `\because`,

	// Arrows
	'→': `\rightarrow`,
	'←': `\leftarrow`,
	'↔': `\leftrightarrow`,
	'⇒': `\Rightarrow`,
	'⇐': `\Leftarrow`,
	'⇔': `\Leftrightarrow`,
	'↑': `\uparrow`,
	'↓': `\downarrow`,
	'↦': `\mapsto`,

	// Calculus and analysis
	'√': `\sqrt`,
	'∞': `\infty`,
	'∂': `\partial`,
	'∇': `\nabla`,
	'∆': `\Delta`, // increment sign, distinct code point from Greek Delta

	// Geometry
	'⊥': `\perp`,
	'∥': `\parallel`,
	'∠': `\angle`,
	'°': `^{\circ}`,

	// Dots and primes
	'…': `\ldots`,
	'⋯': `\cdots`,
	'⋮': `\vdots`,
	'′': `'`,
	'″': `''`,

	// Brackets
	'⟨': `\langle`,
	'⟩': `\rangle`,
	'〈': `\langle`,
	'〉': `\rangle`,
	'⌊': `\lfloor`,
	'⌋': `\rfloor`,
	'⌈': `\lceil`,
	'⌉': `\rceil`,

	// Letterlike symbols
	'ℏ': `\hbar`,
	'ℓ': `\ell`,
	'℘': `\wp`,
	'ℜ': `\Re`,
	'ℑ': `\Im`,
	'ℵ': `\aleph`,
	'ℕ': `\mathbb{N}`,
	'ℤ': `\mathbb{Z}`,
	'ℚ': `\mathbb{Q}`,
	'ℝ': `\mathbb{R}`,
	'ℂ': `\mathbb{C}`,
	'𝔼': `\mathbb{E}`,

	// Accented letters the extractors produce from dotted math variables
	'ẋ': `\dot{x}`,
	'ẏ': `\dot{y}`,
	'ż': `\dot{z}`,
	'ẍ': `\ddot{x}`,
	'ÿ': `\ddot{y}`,
	'Ẋ': `\dot{X}`,
	'Ẏ': `\dot{Y}`,
}

// SuperscriptToNormal maps Unicode superscript characters to their baseline
// forms, collected into ^{...} runs by SubstituteGlyphs.
var SuperscriptToNormal = map[rune]rune{
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9',
	'⁺': '+', '⁻': '-', '⁼': '=', '⁽': '(', '⁾': ')',
	'ⁿ': 'n', 'ⁱ': 'i',
	'ᵃ': 'a', 'ᵇ': 'b', 'ᵈ': 'd', 'ᵉ': 'e', 'ᵏ': 'k',
	'ᵐ': 'm', 'ᵖ': 'p', 'ᵗ': 't', 'ᵘ': 'u', 'ᵛ': 'v',
	'ᵀ': 'T', // transpose marker
}

// SubscriptToNormal maps Unicode subscript characters to their baseline
// forms, collected into _{...} runs by SubstituteGlyphs.
var SubscriptToNormal = map[rune]rune{
	'₀': '0', '₁': '1', '₂': '2', '₃': '3', '₄': '4',
	'₅': '5', '₆': '6', '₇': '7', '₈': '8', '₉': '9',
	'₊': '+', '₋': '-', '₌': '=', '₍': '(', '₎': ')',
	'ₐ': 'a', 'ₑ': 'e', 'ₒ': 'o', 'ₓ': 'x', 'ₕ': 'h',
	'ₖ': 'k', 'ₗ': 'l', 'ₘ': 'm', 'ₙ': 'n', 'ₚ': 'p',
	'ₛ': 's', 'ₜ': 't',
	'ᵢ': 'i', 'ⱼ': 'j', 'ᵣ': 'r', 'ᵤ': 'u', 'ᵥ': 'v',
}

// mathGreekBase lists the 58-character layout of one style block in the
// Mathematical Alphanumeric Symbols Greek range (U+1D6A8..U+1D7CB). Each
// styled rune folds to the base rune at its offset within the block.
var mathGreekBase = [58]rune{
	'Α', 'Β', 'Γ', 'Δ', 'Ε', 'Ζ', 'Η', 'Θ', 'Ι', 'Κ', 'Λ', 'Μ', 'Ν', 'Ξ', 'Ο', 'Π', 'Ρ', // 0-16 capitals through Rho
	'ϴ',                                // 17 capital theta symbol
	'Σ', 'Τ', 'Υ', 'Φ', 'Χ', 'Ψ', 'Ω', // 18-24 remaining capitals
	'∇',                                                                                                            // 25 nabla
	'α', 'β', 'γ', 'δ', 'ε', 'ζ', 'η', 'θ', 'ι', 'κ', 'λ', 'μ', 'ν', 'ξ', 'ο', 'π', 'ρ', 'ς', 'σ', 'τ', 'υ', 'φ', // 26-47
	'χ', 'ψ', 'ω', // 48-50
	'∂',                          // 51 partial differential
	'ϵ', 'ϑ', 'ϰ', 'ϕ', 'ϱ', 'ϖ', // 52-57 symbol variants
}

// foldMathAlphanumeric folds a rune from the Mathematical Alphanumeric
// Symbols block (styled italic/bold/script letters and digits) to its plain
// base rune. Returns false for runes outside the block.
func foldMathAlphanumeric(r rune) (rune, bool) {
	switch {
	case r >= 0x1D400 && r <= 0x1D6A3: // styled Latin letters, 52 per style
		off := (r - 0x1D400) % 52
		if off < 26 {
			return 'A' + off, true
		}
		return 'a' + off - 26, true
	case r >= 0x1D6A8 && r <= 0x1D7C9: // styled Greek, 58 per style, five styles
		return mathGreekBase[(r-0x1D6A8)%58], true
	case r >= 0x1D7CE && r <= 0x1D7FF: // styled digits, 10 per style
		return '0' + (r-0x1D7CE)%10, true
	case r == 'ℎ': // U+210E, the hole where italic h would sit
		return 'h', true
	}
	return 0, false
}

// GlyphToLaTeX returns the LaTeX fragment for one math glyph: operators and
// Greek letters map to commands, styled math alphanumerics fold to plain
// characters, sub/superscript characters wrap as _{...}/^{...}. The second
// return is false when the rune is not a recognized math glyph.
func GlyphToLaTeX(r rune) (string, bool) {
	if frag, ok := OperatorToLaTeX[r]; ok {
		return frag, true
	}
	if folded, ok := foldMathAlphanumeric(r); ok {
		if frag, ok := GreekToLaTeX[folded]; ok {
			return frag, true
		}
		if frag, ok := OperatorToLaTeX[folded]; ok {
			return frag, true
		}
		return string(folded), true
	}
	if frag, ok := GreekToLaTeX[r]; ok {
		return frag, true
	}
	if n, ok := SuperscriptToNormal[r]; ok {
		return "^{" + string(n) + "}", true
	}
	if n, ok := SubscriptToNormal[r]; ok {
		return "_{" + string(n) + "}", true
	}
	return "", false
}

// IsMathGlyph reports whether r is a glyph the table recognizes. The lookup
// maps are never mutated after init, so this is safe for concurrent use.
func IsMathGlyph(r rune) bool {
	_, ok := GlyphToLaTeX(r)
	return ok
}

// SubstituteGlyphs rewrites every recognized math glyph in text to its LaTeX
// fragment. Consecutive sub/superscript characters coalesce into a single
// _{...} or ^{...} group, so ᵢ₊₁ becomes _{i+1} rather than _{i}_{+}_{1}.
func SubstituteGlyphs(text string) string {
	runes := []rune(text)
	var result strings.Builder
	result.Grow(len(text))

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if _, ok := SuperscriptToNormal[r]; ok {
			i = writeScriptRun(&result, runes, i, "^", SuperscriptToNormal)
			continue
		}
		if _, ok := SubscriptToNormal[r]; ok {
			i = writeScriptRun(&result, runes, i, "_", SubscriptToNormal)
			continue
		}

		frag, ok := GlyphToLaTeX(r)
		if !ok {
			result.WriteRune(r)
			continue
		}
		result.WriteString(frag)
		// A command ending in a letter must not run into a following letter.
		if i+1 < len(runes) && endsWithCommandLetter(frag) && isASCIILetter(runes[i+1]) {
			result.WriteByte(' ')
		}
	}
	return result.String()
}

// writeScriptRun consumes a run of sub- or superscript runes starting at i
// and writes one wrapped group. Returns the index of the last consumed rune.
func writeScriptRun(result *strings.Builder, runes []rune, i int, prefix string, table map[rune]rune) int {
	result.WriteString(prefix)
	result.WriteByte('{')
	j := i
	for j < len(runes) {
		n, ok := table[runes[j]]
		if !ok {
			break
		}
		result.WriteRune(n)
		j++
	}
	result.WriteByte('}')
	return j - 1
}

func endsWithCommandLetter(frag string) bool {
	if frag == "" {
		return false
	}
	last := frag[len(frag)-1]
	return strings.HasPrefix(frag, `\`) && isASCIILetter(rune(last))
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
