// Package ordering implements the file_ordering plugin. It verifies that the
// directives within each source file appear in chronological order, so a
// ledger stays readable as it grows.
//
// Enable it with:
//
//	plugin "file_ordering"
//
// Passing "reverse" as the configuration enforces descending order instead,
// for ledgers kept newest-first:
//
//	plugin "file_ordering" "reverse"
package ordering

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/plugin"
)

// Check verifies per-file date ordering. Entries are grouped by source file
// and walked in file order; directives without a position (built in memory)
// are ignored. The entry list is returned unchanged.
func Check(entries []ast.Directive, opts *plugin.Options, config string) ([]ast.Directive, []error) {
	reverse := false

	switch strings.TrimSpace(config) {
	case "":
	case "reverse":
		reverse = true
	default:
		return entries, []error{&plugin.Error{
			Message: "invalid file_ordering config: " + config,
		}}
	}

	byFile := make(map[string][]ast.Directive)
	var filenames []string

	for _, entry := range entries {
		pos := entry.Position()
		if pos.Filename == "" {
			continue
		}
		if _, seen := byFile[pos.Filename]; !seen {
			filenames = append(filenames, pos.Filename)
		}
		byFile[pos.Filename] = append(byFile[pos.Filename], entry)
	}

	var errs []error

	for _, filename := range filenames {
		group := byFile[filename]

		// Entries arrive date-sorted; restore source order within the file.
		slices.SortStableFunc(group, func(a, b ast.Directive) int {
			return a.Position().Offset - b.Position().Offset
		})

		errs = append(errs, checkGroup(group, reverse)...)
	}

	return entries, errs
}

func checkGroup(group []ast.Directive, reverse bool) []error {
	var errs []error
	var prev *ast.Date

	for _, entry := range group {
		date := ast.DirectiveDate(entry)
		if date == nil {
			continue
		}

		if prev != nil && outOfOrder(date, prev, reverse) {
			errs = append(errs, plugin.Errorf(entry,
				"Date %s appears after %s, violating in-file date ordering", date, prev))
		}
		prev = date
	}

	return errs
}

func outOfOrder(date, prev *ast.Date, reverse bool) bool {
	if reverse {
		return date.After(prev.Time)
	}
	return date.Before(prev.Time)
}
