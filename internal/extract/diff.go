package extract

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change summarizes how the page moved between two snapshots.
type Change struct {
	InsertedLines int
	DeletedLines  int
}

// Changed reports any difference.
func (c Change) Changed() bool {
	return c.InsertedLines > 0 || c.DeletedLines > 0
}

// ChangeSummary diffs two markups line by line.
func ChangeSummary(before, after string) Change {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var c Change
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.InsertedLines += n
		case diffmatchpatch.DiffDelete:
			c.DeletedLines += n
		}
	}
	return c
}
