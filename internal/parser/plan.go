package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/imishinist/tuneparams/internal/models"
)

// LoadPlanFile parses a plan file, choosing the format from its extension.
func LoadPlanFile(path string) (*models.PlanFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open plan file %s", path)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSONPlan(file)
	case ".yaml", ".yml":
		return ParseYAMLPlan(file)
	default:
		return nil, errors.Errorf("unsupported plan format: %s (supported: .json, .yaml, .yml)", ext)
	}
}
