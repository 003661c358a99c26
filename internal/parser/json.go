package parser

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/imishinist/tuneparams/internal/models"
)

func ParseJSONPlan(reader io.Reader) (*models.PlanFile, error) {
	var data models.PlanFile
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&data); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON plan")
	}

	return &data, nil
}
