package trades

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ItemMapping resolves integer item IDs to display names. It is loaded
// once per run and never mutated afterwards.
type ItemMapping map[int]string

// itemLinePattern matches the `123: "Item Name"` lines of the mapping
// file, which is lifted verbatim from the game client's item tables.
var itemLinePattern = regexp.MustCompile(`(\d+):\s*"([^"]*)"`)

// LoadItemMapping parses the item mapping file. A missing file is not an
// error: normalization falls back to collection-prefixed IDs.
func LoadItemMapping(path string) (ItemMapping, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ItemMapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read item mapping: %w", err)
	}

	mapping := ItemMapping{}
	for _, m := range itemLinePattern.FindAllStringSubmatch(string(data), -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		// Later entries win: collectibles follow wearables in the
		// source tables and take precedence on ID collisions.
		mapping[id] = m[2]
	}
	return mapping, nil
}

// Name resolves an item ID to a display name, falling back to a
// collection-prefixed ID when the mapping has no entry.
func (m ItemMapping) Name(itemID int, collection string) string {
	if name, ok := m[itemID]; ok {
		return name
	}
	switch strings.ToLower(collection) {
	case "pets":
		return fmt.Sprintf("Pet #%d", itemID)
	case "wearables":
		return fmt.Sprintf("Wearable #%d", itemID)
	case "collectibles":
		return fmt.Sprintf("Collectible #%d", itemID)
	default:
		return fmt.Sprintf("Item #%d", itemID)
	}
}
