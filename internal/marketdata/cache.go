package marketdata

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mhorta/tfpulse/internal/domain/models"
)

// Cache stores complete multi-symbol downloads as single JSON blobs
// keyed by request parameters. A download is cached whole or not at
// all.
type Cache struct {
	dir string
}

// NewCache ensures the cache directory exists and returns the cache.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives a stable digest from the request parameters. Symbol
// order does not matter.
func (c *Cache) Key(symbols []string, tf models.Timeframe, period string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	input := strings.Join(sorted, ",") + "|" + tf.String() + "|" + period
	return fmt.Sprintf("%x", sha256.Sum256([]byte(input)))
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, "bars_"+key+".json")
}

// Load returns the cached table for a key, with ok=false on a miss.
func (c *Cache) Load(key string) (models.SymbolTable, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var payload map[string][]models.Bar
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}

	table := make(models.SymbolTable, len(payload))
	for symbol, bars := range payload {
		table[symbol] = models.NewSeries(bars)
	}
	return table, true, nil
}

// Store writes the table for a key, replacing any previous blob.
func (c *Cache) Store(key string, table models.SymbolTable) error {
	payload := make(map[string][]models.Bar, len(table))
	for symbol, s := range table {
		bars, ok := s.Bars()
		if !ok {
			return fmt.Errorf("cache encode: series for %q is not bar-shaped", symbol)
		}
		payload[symbol] = bars
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return os.WriteFile(c.path(key), data, 0o644)
}
