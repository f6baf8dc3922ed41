package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/hiltest/hiltest/model"
)

var validate = validator.New()

// LoadMatrix reads and validates a MatrixSpec JSON file. Parse failures are
// returned as *SyntaxError.
func LoadMatrix(path string) (model.MatrixSpec, error) {
	var spec model.MatrixSpec
	if err := LoadJSON(path, &spec); err != nil {
		return spec, err
	}
	if err := validate.Struct(&spec); err != nil {
		return spec, fmt.Errorf("invalid test specification %s: %w", path, err)
	}
	return spec, nil
}
