package probe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type scenarioFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads a YAML scenario file.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied scenario path
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	return ParseCases(data)
}

// ParseCases decodes a scenario document of the form
//
//	cases:
//	  - name: contact
//	    fields: {user_email: a@b.co}
//	    expect_template: Contact Form
//
// Every case needs at least one field and exactly one of expect_template
// or expect_types.
func ParseCases(data []byte) ([]Case, error) {
	var doc scenarioFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCases, err)
	}
	if len(doc.Cases) == 0 {
		return nil, fmt.Errorf("%w: no cases", ErrInvalidCases)
	}
	for i, c := range doc.Cases {
		if c.Name == "" {
			doc.Cases[i].Name = fmt.Sprintf("case-%d", i+1)
		}
		if len(c.Fields) == 0 {
			return nil, fmt.Errorf("%w: %s: no fields", ErrInvalidCases, doc.Cases[i].Name)
		}
		hasTemplate, hasTypes := c.ExpectTemplate != "", len(c.ExpectTypes) > 0
		if hasTemplate == hasTypes {
			return nil, fmt.Errorf("%w: %s: set exactly one of expect_template or expect_types",
				ErrInvalidCases, doc.Cases[i].Name)
		}
	}
	return doc.Cases, nil
}
