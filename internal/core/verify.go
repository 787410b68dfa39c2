package core

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Matches reports whether a recovered message equals the expected one.
func Matches(expected, recovered string) bool {
	return sha256.Sum256([]byte(expected)) == sha256.Sum256([]byte(recovered))
}

// Diff returns a unified diff from expected to recovered, or "" if they
// are identical.
func Diff(expected, recovered string) string {
	if Matches(expected, recovered) {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode first, then character level inside changed lines
	a, b, lineArray := dmp.DiffLinesToChars(expected, recovered)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	diffs = dmp.DiffCleanupSemantic(diffs)

	patches := dmp.PatchMake(expected, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString("--- expected\n")
	result.WriteString("+++ recovered\n")
	result.WriteString(dmp.PatchToText(patches))
	return result.String()
}

// Summary describes the character-level differences, e.g. for a short
// single-line message where a patch would be noise.
func Summary(expected, recovered string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(expected, recovered, false)

	var inserted, deleted int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			deleted += len([]rune(d.Text))
		}
	}
	if inserted == 0 && deleted == 0 {
		return "identical"
	}
	return fmt.Sprintf("%d characters added, %d removed (levenshtein %d)", inserted, deleted, dmp.DiffLevenshtein(diffs))
}
