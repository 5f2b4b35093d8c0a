package authz

import (
	"sort"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
)

type ruleKey struct {
	resource string
	action   Action
}

// Registry maps (resource, action) to exactly one Rule. It is built once and
// never mutated; Rule is a value type so lookups hand out copies.
type Registry struct {
	rules map[ruleKey]Rule
	order []Rule
}

// NewRegistry validates rules and builds a registry.
//
// Errors: CodeValidation for malformed rules or a duplicate (resource, action).
func NewRegistry(rules []Rule) (*Registry, error) {
	r := &Registry{rules: make(map[ruleKey]Rule, len(rules))}
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
		k := ruleKey{resource: rule.Resource, action: rule.Action}
		if _, dup := r.rules[k]; dup {
			return nil, dErrors.Newf(dErrors.CodeValidation, "duplicate rule for %s.%s", rule.Resource, rule.Action)
		}
		r.rules[k] = rule
		r.order = append(r.order, rule)
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		if r.order[i].Resource != r.order[j].Resource {
			return r.order[i].Resource < r.order[j].Resource
		}
		return r.order[i].Action < r.order[j].Action
	})
	return r, nil
}

// DefaultRegistry builds a registry from DefaultRules.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultRules())
	if err != nil {
		panic("authz: invalid default rules: " + err.Error())
	}
	return r
}

// Lookup returns the rule for (resource, action).
func (r *Registry) Lookup(resource string, action Action) (Rule, bool) {
	rule, ok := r.rules[ruleKey{resource: resource, action: action}]
	return rule, ok
}

// Rules returns every rule ordered by resource then action.
func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.order...)
}

// Grant describes what a role may do under one rule. SelfOnly means the role's
// rank is too low and only the self-access exception applies.
type Grant struct {
	Rule     Rule `json:"rule"`
	SelfOnly bool `json:"self_only"`
}

// RulesForRole lists the rules a role can exercise, fully or through self-access.
func (r *Registry) RulesForRole(role domain.Role) []Grant {
	var grants []Grant
	for _, rule := range r.order {
		switch {
		case role.AtLeast(rule.MinRole):
			grants = append(grants, Grant{Rule: rule})
		case rule.AllowSelfAccess:
			grants = append(grants, Grant{Rule: rule, SelfOnly: true})
		}
	}
	return grants
}
