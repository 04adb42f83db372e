package lookups

import "encoding/json"

// remarshal copies a decoded value into dest through JSON.
func remarshal(value any, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
