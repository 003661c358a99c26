package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/imishinist/tuneparams/internal/models"
	"github.com/imishinist/tuneparams/internal/parser"
)

// loadPlanFile returns the --plan file, or an empty plan when none is given.
func loadPlanFile() (*models.PlanFile, error) {
	path := viper.GetString("plan")
	if path == "" {
		return &models.PlanFile{}, nil
	}
	return parser.LoadPlanFile(path)
}

// parsePair parses "A,B" into a class pair.
func parsePair(s string) (models.Pair, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return models.Pair{}, errors.Errorf("invalid pair format: %s (expected A,B)", s)
	}
	return models.Pair{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}, nil
}

// parseTags parses tag strings in key=value format
func parseTags(tags []string) (map[string]string, error) {
	tagMap := make(map[string]string)
	for _, tag := range tags {
		parts := strings.SplitN(tag, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid tag format: %s (expected key=value)", tag)
		}
		tagMap[parts[0]] = parts[1]
	}
	return tagMap, nil
}
