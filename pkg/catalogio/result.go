package catalogio

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/quakelab/etas/pkg/inversion"
)

// WriteResult stores an inversion result as indented JSON. The background
// field is not serialized; it is reconstructed from the catalog and the
// stored background probabilities when needed.
func WriteResult(path string, res *inversion.Result) error {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, "write result")
	}
	return errors.Wrap(os.WriteFile(path, append(out, '\n'), 0644), "write result")
}

// ReadResult loads a stored inversion result.
func ReadResult(path string) (*inversion.Result, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read result")
	}
	var res inversion.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrap(err, "read result")
	}
	return &res, nil
}
