// Package rules implements the validate plugin: rule-based validation of
// ledger entries driven by an external YAML rules file.
//
// Enable it with the rules file as configuration:
//
//	plugin "validate" "validate.yaml"
//
// The rules file is a list of rules. A rule pairs a match, deciding which
// elements the rule applies to, with a constraint enforced on the matching
// elements:
//
//	- description: checking transactions must have a bank-label
//	  match:
//	    target: transaction
//	    account: /^Assets:.*:Checking/
//	  constraint:
//	    meta:
//	      schema:
//	        bank-label:
//	          required: true
//
// Matches apply to transactions by default. The target property overrides
// this with a directive name, "posting" for individual transaction postings,
// "all" for every top-level entry, or a list of those. The account property
// restricts matching to elements touching an account, either exactly or, when
// wrapped in slashes, by regular expression. The where property makes a rule
// conditional: elements matching the where constraint must also satisfy the
// rule's constraint.
//
// Constraints are enforced on entries lifted into nested maps (see Lift), so
// a rule can reach into metadata, postings, and amounts uniformly. Entries
// are returned unchanged; violations are reported as errors.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/plugin"
)

// Rule is one entry of a rules file.
type Rule struct {
	Description string         `yaml:"description"`
	Match       *Match         `yaml:"match"`
	Constraint  map[string]any `yaml:"constraint"`
}

// Match selects the elements a rule applies to. A nil match applies to
// everything.
type Match struct {
	Target  any            `yaml:"target"` // string or list of strings
	Account string         `yaml:"account"`
	Where   map[string]any `yaml:"where"`
}

// Load reads and decodes a YAML rules file.
func Load(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rules []*Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

// ResolveRulesPath locates a rules file named in a plugin configuration.
// Relative paths are tried against the main ledger file's directory first,
// then the working directory.
func ResolveRulesPath(config string, opts *plugin.Options) string {
	path := strings.TrimSpace(config)
	if path == "" || filepath.IsAbs(path) || opts == nil || opts.Filename == "" {
		return path
	}

	candidate := filepath.Join(filepath.Dir(opts.Filename), path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

// Matcher is a compiled Match.
type Matcher struct {
	targets map[string]bool // nil means all top-level entries
	account *regexp.Regexp
	where   map[string]any
}

// WhereFunc evaluates a conditional match schema against a lifted element.
type WhereFunc func(schema map[string]any, doc map[string]any) bool

// CompileMatch compiles a match specification. A nil match compiles to a
// catch-all matcher.
func CompileMatch(m *Match) (*Matcher, error) {
	if m == nil {
		return &Matcher{where: nil, targets: nil}, nil
	}

	matcher := &Matcher{where: m.Where}

	targets, err := parseTargets(m.Target)
	if err != nil {
		return nil, err
	}
	matcher.targets = targets

	if m.Account != "" {
		pattern := m.Account
		if strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") && len(pattern) > 1 {
			pattern = strings.Trim(pattern, "/")
		} else {
			pattern = "^" + regexp.QuoteMeta(pattern) + "$"
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid account pattern %q: %w", m.Account, err)
		}
		matcher.account = re
	}

	return matcher, nil
}

var knownTargets = map[string]bool{
	"balance": true, "close": true, "commodity": true, "custom": true,
	"document": true, "event": true, "note": true, "open": true,
	"pad": true, "posting": true, "price": true, "query": true,
	"transaction": true,
}

// parseTargets normalizes the target property. The default is transactions
// only; "all" means every top-level entry and yields a nil set.
func parseTargets(target any) (map[string]bool, error) {
	switch t := target.(type) {
	case nil:
		return map[string]bool{"transaction": true}, nil

	case string:
		name := strings.ToLower(t)
		if name == "all" {
			return nil, nil
		}
		if !knownTargets[name] {
			return nil, fmt.Errorf("unknown target %q", t)
		}
		return map[string]bool{name: true}, nil

	case []any:
		targets := make(map[string]bool, len(t))
		for _, item := range t {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid target %v", item)
			}
			name = strings.ToLower(name)
			if name == "all" {
				return nil, nil
			}
			if !knownTargets[name] {
				return nil, fmt.Errorf("unknown target %q", name)
			}
			targets[name] = true
		}
		return targets, nil

	default:
		return nil, fmt.Errorf("invalid target %v", target)
	}
}

// Applies reports whether the matcher selects the given lifted element. The
// where evaluator is supplied by the caller so different plugins can use
// different schema languages for conditional matches.
func (m *Matcher) Applies(doc map[string]any, where WhereFunc) bool {
	elementType, _ := doc["_type"].(string)

	if m.targets == nil {
		// All top-level entries, which excludes postings.
		if elementType == "posting" {
			return false
		}
	} else if !m.targets[elementType] {
		return false
	}

	if m.account != nil && !m.matchesAccount(doc, elementType) {
		return false
	}

	if m.where != nil {
		if where == nil || !where(m.where, doc) {
			return false
		}
	}

	return true
}

// matchesAccount checks the account condition. Transactions match if any
// posting's account matches; other elements match on their account field.
func (m *Matcher) matchesAccount(doc map[string]any, elementType string) bool {
	if elementType == "transaction" {
		postings, _ := doc["postings"].([]any)
		for _, p := range postings {
			posting, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if account, ok := posting["account"].(string); ok && m.account.MatchString(account) {
				return true
			}
		}
		return false
	}

	account, ok := doc["account"].(string)
	return ok && m.account.MatchString(account)
}

type compiledRule struct {
	description string
	matcher     *Matcher
	constraint  map[string]any
}

// Check enforces the rules file named by config on all entries. Entries are
// returned unchanged.
func Check(entries []ast.Directive, opts *plugin.Options, config string) ([]ast.Directive, []error) {
	if strings.TrimSpace(config) == "" {
		return entries, []error{&plugin.Error{Message: "validate: missing rules file"}}
	}

	loaded, err := Load(ResolveRulesPath(config, opts))
	if err != nil {
		return entries, []error{&plugin.Error{Message: "validate: " + err.Error()}}
	}

	var compiled []*compiledRule
	var errs []error

	for i, rule := range loaded {
		matcher, err := CompileMatch(rule.Match)
		if err != nil {
			errs = append(errs, &plugin.Error{
				Message: fmt.Sprintf("validate: rule %d (%s): %s", i+1, rule.Description, err),
			})
			continue
		}
		compiled = append(compiled, &compiledRule{
			description: rule.Description,
			matcher:     matcher,
			constraint:  rule.Constraint,
		})
	}

	for _, entry := range entries {
		errs = append(errs, checkEntry(entry, compiled)...)
	}

	return entries, errs
}

// checkEntry applies every rule to the entry and, for transactions, to each
// posting. Every failing element yields its own error; posting violations are
// reported on the containing transaction.
func checkEntry(entry ast.Directive, compiled []*compiledRule) []error {
	var errs []error

	docs := []map[string]any{Lift(entry)}
	if postings, ok := docs[0]["postings"].([]any); ok {
		for _, p := range postings {
			if posting, ok := p.(map[string]any); ok {
				docs = append(docs, posting)
			}
		}
	}

	for _, rule := range compiled {
		for _, doc := range docs {
			if rule.matcher.Applies(doc, Satisfies) && !Satisfies(rule.constraint, doc) {
				errs = append(errs, plugin.Errorf(entry, "Constraint violation: %s", rule.description))
			}
		}
	}

	return errs
}
