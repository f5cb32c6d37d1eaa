// Package documents implements the no_missing_documents plugin. It verifies
// that every file referenced by the ledger actually exists on disk: paths in
// document directives and paths stored under configured metadata keys.
//
// Enable it with:
//
//	plugin "no_missing_documents"
//
// The configuration is a comma-separated list of metadata keys to check; it
// defaults to "document". The special token "meta-only" skips document
// directives and checks metadata references only:
//
//	plugin "no_missing_documents" "receipt,statement,meta-only"
package documents

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/plugin"
)

// DefaultKey is the metadata key checked when no configuration is given.
const DefaultKey = "document"

// Check verifies referenced documents exist. Relative paths resolve against
// the directory of the file the directive came from, falling back to the
// working directory. The entry list is returned unchanged.
func Check(entries []ast.Directive, opts *plugin.Options, config string) ([]ast.Directive, []error) {
	keys, checkDirectives := parseConfig(config)

	var errs []error

	for _, entry := range entries {
		if doc, ok := entry.(*ast.Document); ok && checkDirectives {
			if !documentExists(doc.PathToDocument, doc.Position()) {
				errs = append(errs, plugin.Errorf(doc, "Document not found: %s", doc.PathToDocument))
			}
		}

		for _, key := range keys {
			value := entry.GetMetadata(key)
			if value == nil || value.StringValue == nil || *value.StringValue == "" {
				continue
			}
			path := *value.StringValue
			if !documentExists(path, entry.Position()) {
				errs = append(errs, plugin.Errorf(entry, "Document not found: %s", path))
			}
		}
	}

	return entries, errs
}

// parseConfig splits the comma-separated key list, extracting the meta-only
// token. An empty config means the default key with directive checking on.
func parseConfig(config string) (keys []string, checkDirectives bool) {
	checkDirectives = true

	for _, token := range strings.Split(config, ",") {
		token = strings.TrimSpace(token)
		switch token {
		case "":
		case "meta-only":
			checkDirectives = false
		default:
			keys = append(keys, token)
		}
	}

	if len(keys) == 0 {
		keys = []string{DefaultKey}
	}
	return keys, checkDirectives
}

// documentExists reports whether path refers to an existing regular file.
// A leading ~ expands to the user's home directory. Relative paths are tried
// against the directive's source directory first.
func documentExists(path string, pos ast.Position) bool {
	path = expandHome(path)

	if filepath.IsAbs(path) {
		return isFile(path)
	}

	if pos.Filename != "" {
		if isFile(filepath.Join(filepath.Dir(pos.Filename), path)) {
			return true
		}
	}

	return isFile(path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
