// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package textdiff renders the line-level difference between two text
// snapshots.
//
// [Diff] compares the snapshots line by line and returns one row per
// changed line, in order:
//
//	[CHANGE,old text with ~removed~ runs,new text with **added** runs]
//	[DELETE,~removed line~,]
//	[INSERT,,**added line**]
//
// Unchanged lines produce no row, so two identical snapshots yield an
// empty result. Within a CHANGE row, the changed character runs are
// wrapped in "~" on the old side and "**" on the new side.
//
// Line and character alignment come from go-difflib's SequenceMatcher,
// a port of Python's difflib.
package textdiff
