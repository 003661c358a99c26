package parser

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/imishinist/tuneparams/internal/models"
)

func ParseYAMLPlan(reader io.Reader) (*models.PlanFile, error) {
	var data models.PlanFile
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	if err := decoder.Decode(&data); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML plan")
	}

	return &data, nil
}
