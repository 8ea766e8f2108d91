// Package policy turns CEL exclusion rules into index visibility predicates.
package policy

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/SciGraph/SciGraph-sub002/pkg/graph"
	"github.com/SciGraph/SciGraph-sub002/pkg/reachability"
)

// ExclusionRule hides every node for which Condition evaluates to true.
// Conditions see id (int), iri (string), labels (list of string), props
// (map) and degree (int), e.g. "'Deprecated' in labels".
type ExclusionRule struct {
	ID        string `yaml:"id"`
	Condition string `yaml:"condition"`
}

type compiledRule struct {
	ExclusionRule
	prg cel.Program
}

// Engine evaluates exclusion rules against graph nodes.
type Engine struct {
	env    *cel.Env
	rules  []compiledRule
	logger *slog.Logger
}

// NewEngine initializes the CEL environment with the node variables.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("id", cel.IntType),
		cel.Variable("iri", cel.StringType),
		cel.Variable("labels", cel.ListType(cel.StringType)),
		cel.Variable("props", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("degree", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{env: env, logger: logger}, nil
}

// Compile adds rules to the engine.
func (e *Engine) Compile(rules []ExclusionRule) error {
	for _, r := range rules {
		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}

		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}
		e.rules = append(e.rules, compiledRule{ExclusionRule: r, prg: prg})
	}
	return nil
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int { return len(e.rules) }

// Rules returns the source of every compiled rule, in evaluation order.
func (e *Engine) Rules() []ExclusionRule {
	rules := make([]ExclusionRule, len(e.rules))
	for i, r := range e.rules {
		rules[i] = r.ExclusionRule
	}
	return rules
}

// Excludes returns the id of the first rule hiding n, or "" when n stays
// visible. A rule that fails to evaluate, or yields a non-bool, does not
// hide the node.
func (e *Engine) Excludes(n *graph.Node, degree int) string {
	props := n.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	vars := map[string]interface{}{
		"id":     int64(n.ID),
		"iri":    n.IRI,
		"labels": labels,
		"props":  props,
		"degree": int64(degree),
	}

	for _, r := range e.rules {
		out, _, err := r.prg.Eval(vars)
		if err != nil {
			e.logger.Warn("Exclusion rule evaluation failed", "rule_id", r.ID, "iri", n.IRI, "error", err)
			continue
		}
		if hide, ok := out.Value().(bool); ok && hide {
			return r.ID
		}
	}
	return ""
}

// Visibility evaluates every rule once per node of g and returns the
// resulting predicate. Nodes unknown to g are treated as hidden.
func (e *Engine) Visibility(g *graph.Graph) reachability.Visibility {
	if len(e.rules) == 0 {
		return nil
	}

	hidden := make(map[graph.NodeID]bool)
	for _, n := range g.GetNodes() {
		if rule := e.Excludes(n, g.Degree(n.ID)); rule != "" {
			hidden[n.ID] = true
			e.logger.Debug("Node excluded from reachability index", "iri", n.IRI, "rule_id", rule)
		}
	}
	e.logger.Info("Exclusion rules applied", "rules", len(e.rules), "excluded", len(hidden))

	size := graph.NodeID(g.Store.NodeCount())
	return func(id graph.NodeID) bool {
		return id >= 0 && id < size && !hidden[id]
	}
}

// CompileExclusion builds an engine holding a single inline expression.
// An empty expression yields an engine with no rules.
func CompileExclusion(expr string, logger *slog.Logger) (*Engine, error) {
	e, err := NewEngine(logger)
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return e, nil
	}
	if err := e.Compile([]ExclusionRule{{ID: "exclude", Condition: expr}}); err != nil {
		return nil, err
	}
	return e, nil
}

type rulesFile struct {
	Rules []ExclusionRule `yaml:"rules"`
}

// LoadRules reads exclusion rules from a YAML document of the form
//
//	rules:
//	  - id: deprecated
//	    condition: "'Deprecated' in labels"
func LoadRules(path string) ([]ExclusionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	for i, r := range f.Rules {
		if r.Condition == "" {
			return nil, fmt.Errorf("rule %d (%q) has no condition", i, r.ID)
		}
		if r.ID == "" {
			f.Rules[i].ID = fmt.Sprintf("rule-%d", i)
		}
	}
	return f.Rules, nil
}
