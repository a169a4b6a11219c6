package models

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSymbolNotFound is returned when a table has no series for a
// requested symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// SymbolTable holds one bar series per symbol.
type SymbolTable map[string]*Series

// Series returns the series stored for symbol, or an error wrapping
// ErrSymbolNotFound.
func (t SymbolTable) Series(symbol string) (*Series, error) {
	s, ok := t[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSymbolNotFound, symbol)
	}
	return s, nil
}

// Symbols returns the table's symbols in ascending order.
func (t SymbolTable) Symbols() []string {
	out := make([]string, 0, len(t))
	for sym := range t {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
