package intake

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlProject struct {
	Deadline   *float64       `yaml:"deadline"`
	Activities []yamlActivity `yaml:"activities"`
}

type yamlActivity struct {
	Name        string        `yaml:"name"`
	Optimistic  yamlScalar    `yaml:"optimistic"`
	MostLikely  yamlScalar    `yaml:"most_likely"`
	Pessimistic yamlScalar    `yaml:"pessimistic"`
	Precedents  precedentList `yaml:"precedents"`
}

// yamlScalar keeps the literal text of a scalar so that "3" and 3 behave the same.
type yamlScalar string

func (s *yamlScalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", value.Line)
	}
	*s = yamlScalar(strings.TrimSpace(value.Value))
	return nil
}

// precedentList accepts either a sequence of names or a comma-separated string.
type precedentList []string

func (p *precedentList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*p = SplitPrecedents(value.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*p = NormalizePrecedents(names)
		return nil
	default:
		return fmt.Errorf("line %d: precedents must be a list or a comma-separated string", value.Line)
	}
}

// ParseYAML decodes a YAML project file.
func ParseYAML(data []byte) (*Request, error) {
	var doc yamlProject
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := CheckDeadline(doc.Deadline); err != nil {
		return nil, err
	}

	req := &Request{Activities: make([]Activity, 0, len(doc.Activities)), Deadline: doc.Deadline}
	for _, a := range doc.Activities {
		req.Activities = append(req.Activities, Activity{
			Name:        strings.TrimSpace(a.Name),
			Optimistic:  string(a.Optimistic),
			MostLikely:  string(a.MostLikely),
			Pessimistic: string(a.Pessimistic),
			Precedents:  []string(a.Precedents),
		})
	}
	return req, nil
}
