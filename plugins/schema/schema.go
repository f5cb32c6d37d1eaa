// Package schema implements the cerberus_validate plugin: rule-based
// validation like the validate plugin, but with rule evaluation delegated to
// JSON Schema instead of the built-in constraint language.
//
// Enable it with the rules file as configuration:
//
//	plugin "cerberus_validate" "rules.yaml"
//
// The rules file has the same shape as the validate plugin's: a list of
// {description, match, constraint} rules. Match targets and account patterns
// work identically; the constraint (and a match's where condition) is a JSON
// Schema document, expressed in YAML, enforced on the lifted form of each
// matching element:
//
//	- description: checking transactions must have a bank-label
//	  match:
//	    target: transaction
//	    account: /^Assets:.*:Checking/
//	  constraint:
//	    properties:
//	      meta:
//	        required: [bank-label]
//
// Entries are returned unchanged; violations are reported as errors.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/beanlint/beanlint/ast"
	"github.com/beanlint/beanlint/plugin"
	"github.com/beanlint/beanlint/plugins/rules"
)

type compiledRule struct {
	description string
	matcher     *rules.Matcher
	where       *jsonschema.Schema
	constraint  *jsonschema.Schema
}

// Check enforces the JSON Schema rules file named by config on all entries.
// Entries are returned unchanged.
func Check(entries []ast.Directive, opts *plugin.Options, config string) ([]ast.Directive, []error) {
	if strings.TrimSpace(config) == "" {
		return entries, []error{&plugin.Error{Message: "cerberus_validate: missing rules file"}}
	}

	loaded, err := rules.Load(rules.ResolveRulesPath(config, opts))
	if err != nil {
		return entries, []error{&plugin.Error{Message: "cerberus_validate: " + err.Error()}}
	}

	var compiled []*compiledRule
	var errs []error

	for i, rule := range loaded {
		cr, err := compileRule(i, rule)
		if err != nil {
			errs = append(errs, &plugin.Error{
				Message: fmt.Sprintf("cerberus_validate: rule %d (%s): %s", i+1, rule.Description, err),
			})
			continue
		}
		compiled = append(compiled, cr)
	}

	for _, entry := range entries {
		errs = append(errs, checkEntry(entry, compiled)...)
	}

	return entries, errs
}

func compileRule(index int, rule *rules.Rule) (*compiledRule, error) {
	matcher, err := rules.CompileMatch(rule.Match)
	if err != nil {
		return nil, err
	}

	cr := &compiledRule{description: rule.Description, matcher: matcher}

	cr.constraint, err = compileSchema(fmt.Sprintf("rule%d/constraint.json", index), rule.Constraint)
	if err != nil {
		return nil, err
	}

	if rule.Match != nil && rule.Match.Where != nil {
		cr.where, err = compileSchema(fmt.Sprintf("rule%d/where.json", index), rule.Match.Where)
		if err != nil {
			return nil, err
		}
	}

	return cr, nil
}

// compileSchema compiles a schema document decoded from YAML. An absent
// document compiles to nil, which validates everything.
func compileSchema(url string, doc map[string]any) (*jsonschema.Schema, error) {
	if doc == nil {
		return nil, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, normalize(doc)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// normalize rewrites YAML-decoded values into the JSON data model the schema
// library expects: numbers become float64 and json.Number strings are
// resolved.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, normalize(item))
		}
		return out
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return value
	}
}

func checkEntry(entry ast.Directive, compiled []*compiledRule) []error {
	var errs []error

	docs := []map[string]any{rules.Lift(entry)}
	if postings, ok := docs[0]["postings"].([]any); ok {
		for _, p := range postings {
			if posting, ok := p.(map[string]any); ok {
				docs = append(docs, posting)
			}
		}
	}

	for _, rule := range compiled {
		for _, doc := range docs {
			instance, _ := normalize(doc).(map[string]any)
			if !applies(rule, instance) {
				continue
			}
			if rule.constraint != nil && rule.constraint.Validate(instance) != nil {
				errs = append(errs, plugin.Errorf(entry, "Constraint violation: %s", rule.description))
			}
		}
	}

	return errs
}

func applies(rule *compiledRule, instance map[string]any) bool {
	return rule.matcher.Applies(instance, func(_ map[string]any, doc map[string]any) bool {
		return rule.where == nil || rule.where.Validate(doc) == nil
	})
}
