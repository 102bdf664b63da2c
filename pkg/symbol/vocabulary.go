package symbol

import (
	"fmt"
)

// Vocabulary is the bidirectional symbol/id mapping used for class labels.
// Ids are dense in [0, Len()) and follow first-occurrence order.
// A Vocabulary is not modified after construction.
type Vocabulary struct {
	IDToSymbol map[int]string
	SymbolToID map[string]int
}

// NewVocabulary builds a Vocabulary where symbols[i] receives id i.
// Duplicate symbols are rejected.
func NewVocabulary(symbols []string) (Vocabulary, error) {
	v := Vocabulary{
		IDToSymbol: make(map[int]string, len(symbols)),
		SymbolToID: make(map[string]int, len(symbols)),
	}
	for i, s := range symbols {
		if prev, ok := v.SymbolToID[s]; ok {
			return Vocabulary{}, fmt.Errorf("%w: symbol %q at ids %d and %d", ErrInvalidVocabulary, s, prev, i)
		}
		v.SymbolToID[s] = i
		v.IDToSymbol[i] = s
	}
	return v, nil
}

// Len returns the number of distinct symbols.
func (v Vocabulary) Len() int {
	return len(v.IDToSymbol)
}

// ID returns the id assigned to symbol.
func (v Vocabulary) ID(symbol string) (int, bool) {
	id, ok := v.SymbolToID[symbol]
	return id, ok
}

// Symbol returns the symbol assigned to id.
func (v Vocabulary) Symbol(id int) (string, bool) {
	s, ok := v.IDToSymbol[id]
	return s, ok
}

// Symbols returns the symbols ordered by id.
func (v Vocabulary) Symbols() []string {
	out := make([]string, len(v.IDToSymbol))
	for id, s := range v.IDToSymbol {
		if id >= 0 && id < len(out) {
			out[id] = s
		}
	}
	return out
}

// Validate checks that both maps are exact inverses with dense ids.
func (v Vocabulary) Validate() error {
	if len(v.IDToSymbol) != len(v.SymbolToID) {
		return fmt.Errorf("%w: %d ids but %d symbols", ErrInvalidVocabulary, len(v.IDToSymbol), len(v.SymbolToID))
	}
	for id, s := range v.IDToSymbol {
		if id < 0 || id >= len(v.IDToSymbol) {
			return fmt.Errorf("%w: id %d outside [0, %d)", ErrInvalidVocabulary, id, len(v.IDToSymbol))
		}
		back, ok := v.SymbolToID[s]
		if !ok || back != id {
			return fmt.Errorf("%w: id %d maps to %q which maps back to %d", ErrInvalidVocabulary, id, s, back)
		}
	}
	return nil
}
