// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package textdiff

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Row tags.
const (
	TagChange = "CHANGE"
	TagDelete = "DELETE"
	TagInsert = "INSERT"
)

// Inline markers wrapped around changed character runs.
const (
	OldMarker = "~"
	NewMarker = "**"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Diff returns the rendered difference rows between original and
// revised. The result is empty (non-nil) when the texts are equal.
func Diff(original, revised string) []string {
	rows := []string{}
	if original == revised {
		return rows
	}

	oldLines := splitLines(original)
	newLines := splitLines(revised)

	matcher := difflib.NewMatcherWithJunk(oldLines, newLines, false, nil)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			continue
		case 'd':
			for _, line := range oldLines[op.I1:op.I2] {
				rows = append(rows, row(TagDelete, wrap(line, OldMarker), ""))
			}
		case 'i':
			for _, line := range newLines[op.J1:op.J2] {
				rows = append(rows, row(TagInsert, "", wrap(line, NewMarker)))
			}
		case 'r':
			rows = append(rows, replaceRows(oldLines[op.I1:op.I2], newLines[op.J1:op.J2])...)
		}
	}
	return rows
}

// replaceRows pairs replaced lines positionally. Pairs become CHANGE
// rows with inline markers; leftovers on either side become DELETE or
// INSERT rows.
func replaceRows(oldLines, newLines []string) []string {
	var rows []string
	count := max(len(oldLines), len(newLines))
	for index := range count {
		switch {
		case index < len(oldLines) && index < len(newLines):
			oldMarked, newMarked := inline(oldLines[index], newLines[index])
			rows = append(rows, row(TagChange, oldMarked, newMarked))
		case index < len(oldLines):
			rows = append(rows, row(TagDelete, wrap(oldLines[index], OldMarker), ""))
		default:
			rows = append(rows, row(TagInsert, "", wrap(newLines[index], NewMarker)))
		}
	}
	return rows
}

// inline marks the character runs that differ between two lines.
func inline(oldLine, newLine string) (string, string) {
	oldChars := strings.Split(oldLine, "")
	newChars := strings.Split(newLine, "")

	var oldOut, newOut strings.Builder
	matcher := difflib.NewMatcherWithJunk(oldChars, newChars, false, nil)
	for _, op := range matcher.GetOpCodes() {
		oldRun := strings.Join(oldChars[op.I1:op.I2], "")
		newRun := strings.Join(newChars[op.J1:op.J2], "")
		if op.Tag == 'e' {
			oldOut.WriteString(oldRun)
			newOut.WriteString(newRun)
			continue
		}
		oldOut.WriteString(wrap(oldRun, OldMarker))
		newOut.WriteString(wrap(newRun, NewMarker))
	}
	return oldOut.String(), newOut.String()
}

// splitLines splits on LF or CRLF. Trailing empty lines are kept so a
// trailing newline counts as a difference.
func splitLines(text string) []string {
	return lineBreak.Split(text, -1)
}

func wrap(text, marker string) string {
	if text == "" {
		return ""
	}
	return marker + text + marker
}

func row(tag, oldText, newText string) string {
	return "[" + tag + "," + oldText + "," + newText + "]"
}
