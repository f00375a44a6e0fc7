package channel

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

type emailTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type templateTable struct {
	SMS   map[string]string        `yaml:"sms"`
	Email map[string]emailTemplate `yaml:"email"`
}

var (
	templatesOnce sync.Once
	templates     *templateTable
	templatesErr  error
)

func loadTemplates() (*templateTable, error) {
	templatesOnce.Do(func() {
		var table templateTable
		if err := yaml.Unmarshal(templatesYAML, &table); err != nil {
			templatesErr = fmt.Errorf("failed to parse embedded templates: %w", err)
			return
		}
		templates = &table
	})
	return templates, templatesErr
}

// renderTemplate substitutes {{name}} placeholders with values from vars.
// Unknown placeholders are left untouched.
func renderTemplate(body string, vars map[string]string) string {
	if len(vars) == 0 {
		return body
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
