package plan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// tomlPlan is the TOML document shape:
//
//	[[task]]
//	id = "A"
//	after = ["C"]
//	cost = 4
type tomlPlan struct {
	Task []TaskSpec `toml:"task"`
}

// ParseTOML decodes a TOML plan.
func ParseTOML(data []byte) (*Plan, error) {
	var doc tomlPlan
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding TOML: %w", err)
	}
	return fromSpecs(doc.Task)
}

// yamlPlan is the YAML document shape:
//
//	tasks:
//	  - id: A
//	    after: [C]
//	    cost: 4
type yamlPlan struct {
	Tasks []TaskSpec `yaml:"tasks"`
}

// ParseYAML decodes a YAML plan.
func ParseYAML(data []byte) (*Plan, error) {
	var doc yamlPlan
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return fromSpecs(doc.Tasks)
}

// hclPlan is the HCL document shape:
//
//	task "A" {
//	  after = ["C"]
//	  cost  = 4
//	}
type hclPlan struct {
	Tasks []hclTask `hcl:"task,block"`
}

type hclTask struct {
	ID    string   `hcl:"id,label"`
	After []string `hcl:"after,optional"`
	Cost  int      `hcl:"cost,optional"`
}

// ParseHCL decodes an HCL plan. name labels diagnostics.
func ParseHCL(name string, data []byte) (*Plan, error) {
	// hclsimple picks native syntax from the extension.
	if !strings.EqualFold(filepath.Ext(name), ".hcl") {
		name += ".hcl"
	}
	var doc hclPlan
	if err := hclsimple.Decode(name, data, nil, &doc); err != nil {
		return nil, fmt.Errorf("decoding HCL: %w", err)
	}
	specs := make([]TaskSpec, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		specs = append(specs, TaskSpec{ID: t.ID, After: t.After, Cost: t.Cost})
	}
	return fromSpecs(specs)
}
