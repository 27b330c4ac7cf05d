package dto

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Minutes tolerates the loose duration typing clients send: a number, a
// numeric string, or anything else, which decodes as zero so the room core
// applies its default duration.
type Minutes int

func (m *Minutes) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*m = Minutes(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*m = Minutes(n)
			return nil
		}
	}

	*m = 0
	return nil
}
