package country

import (
	_ "embed"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/launchsync/pkg/catalog"
	"github.com/agentstation/launchsync/pkg/errors"
)

//go:embed countries.yaml
var seedYAML []byte

type seedFile struct {
	Countries []catalog.Country `yaml:"countries"`
}

// Seed returns the embedded reference countries.
func Seed() ([]catalog.Country, error) {
	return parseSeed(seedYAML)
}

func parseSeed(data []byte) ([]catalog.Country, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", "countries.yaml", err)
	}
	for i, c := range f.Countries {
		if c.Code == "" {
			return nil, errors.NewValidationError("code", i, "country without code")
		}
	}
	return f.Countries, nil
}
