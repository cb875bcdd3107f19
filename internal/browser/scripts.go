package browser

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

var (
	//go:embed scripts/embed.js
	embedScript string

	//go:embed scripts/scan.js
	scanScript string

	//go:embed scripts/activate.js
	activateScript string
)

// decodeEvaluation converts a value returned by the browser into target.
func decodeEvaluation(value any, target any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation result: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode evaluation result: %w", err)
	}
	return nil
}
