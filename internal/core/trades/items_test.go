package trades

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadItemMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "item_mapping.txt")
	content := `// wearables
  303: "Fancy Top",
  304: "Farmer Pants",
// collectibles
  601: "Milk",
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadItemMapping(path)
	require.NoError(t, err)
	assert.Len(t, m, 3)
	assert.Equal(t, "Fancy Top", m[303])
	assert.Equal(t, "Milk", m[601])
}

func TestLoadItemMappingMissingFile(t *testing.T) {
	m, err := LoadItemMapping(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestLoadItemMappingLaterEntryWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "item_mapping.txt")
	require.NoError(t, os.WriteFile(path, []byte(`5: "Old Name"`+"\n"+`5: "New Name"`), 0o644))

	m, err := LoadItemMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "New Name", m[5])
}

func TestItemNameFallbacks(t *testing.T) {
	m := ItemMapping{101: "Milk"}

	assert.Equal(t, "Milk", m.Name(101, "collectibles"))
	assert.Equal(t, "Pet #7", m.Name(7, "pets"))
	assert.Equal(t, "Wearable #303", m.Name(303, "wearables"))
	assert.Equal(t, "Collectible #9", m.Name(9, "collectibles"))
	assert.Equal(t, "Item #42", m.Name(42, "mystery"))
	assert.Equal(t, "Wearable #8", m.Name(8, "Wearables")) // case-insensitive collection
}
