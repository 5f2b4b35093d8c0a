package authz

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
)

// ruleFile is the on-disk shape of a permission rule set:
//
//	rules:
//	  - resource: leaves
//	    action: read
//	    min_role: manager
//	    allow_self_access: true
//	    organization_boundary: true
type ruleFile struct {
	Rules []struct {
		Resource             string `yaml:"resource"`
		Action               string `yaml:"action"`
		MinRole              string `yaml:"min_role"`
		AllowSelfAccess      bool   `yaml:"allow_self_access"`
		OrganizationBoundary bool   `yaml:"organization_boundary"`
	} `yaml:"rules"`
}

// LoadRules decodes a YAML rule set. Unknown fields are rejected so a typo in a
// flag name cannot silently widen access.
func LoadRules(r io.Reader) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f ruleFile
	if err := dec.Decode(&f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "decode permission rules")
	}
	if len(f.Rules) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "permission rule file has no rules")
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, raw := range f.Rules {
		action, err := ParseAction(raw.Action)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("rule %d", i))
		}
		role, err := domain.ParseRole(raw.MinRole)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("rule %d", i))
		}
		rules = append(rules, Rule{
			Resource:             raw.Resource,
			Action:               action,
			MinRole:              role,
			AllowSelfAccess:      raw.AllowSelfAccess,
			OrganizationBoundary: raw.OrganizationBoundary,
		})
	}
	return rules, nil
}

// LoadRegistryFile builds a registry from a YAML file.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open permission rules: %w", err)
	}
	defer f.Close()

	rules, err := LoadRules(f)
	if err != nil {
		return nil, err
	}
	return NewRegistry(rules)
}
