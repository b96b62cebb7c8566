// Package repair fixes sentence punctuation lost by upstream text extraction.
//
// Extracted documents often drop the period that ends a paragraph or a block,
// which breaks sentence splitting downstream. Text applies two substitutions:
// blank-looking paragraph breaks ("\n \n") become ".\n", and a period is inserted
// before any line break that separates an unterminated line from a line starting
// with an uppercase letter. The pass is a heuristic patch for defective extraction;
// it is deterministic and idempotent.
package repair

import "strings"

const blankBreak = "\n \n"

// Text returns raw with paragraph punctuation repaired.
// Text(Text(s)) == Text(s) for every s.
func Text(raw string) string {
	return terminateLines(collapseBlankBreaks(raw))
}

// collapseBlankBreaks replaces "\n \n" with ".\n" until no occurrence remains.
// A single pass over "\n \n \n" leaves ".\n \n" behind, so the replacement is repeated.
func collapseBlankBreaks(s string) string {
	for strings.Contains(s, blankBreak) {
		s = strings.ReplaceAll(s, blankBreak, ".\n")
	}
	return s
}

// terminateLines inserts '.' before every line break whose preceding line does not end
// in a period (trailing spaces and tabs ignored) and whose following line starts,
// after optional spaces and tabs, with an ASCII uppercase letter.
// Each break is examined on its own, so adjacent short lines are all terminated.
func terminateLines(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/64)

	lineStart := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' {
			continue
		}
		b.WriteString(s[lineStart:i])
		if i > 0 && needsPeriod(s[lineStart:i], s[i+1:]) {
			b.WriteByte('.')
		}
		b.WriteByte('\n')
		lineStart = i + 1
	}
	b.WriteString(s[lineStart:])

	return b.String()
}

func needsPeriod(before, after string) bool {
	if strings.HasSuffix(strings.TrimRight(before, " \t"), ".") {
		return false
	}
	rest := strings.TrimLeft(after, " \t")
	return rest != "" && rest[0] >= 'A' && rest[0] <= 'Z'
}
