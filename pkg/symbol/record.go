// Package symbol holds the domain types shared by the manifest, vocabulary and
// dataset packages: manifest records, the symbol vocabulary, grayscale images
// and index-aligned datasets.
package symbol

// RecordFields is the exact number of comma-separated fields in a manifest line.
const RecordFields = 4

// Record is one data line of a manifest file.
//
// Label manifests carry image_path, symbol_id, latex and a fourth unused field.
// Symbol manifests reuse the same four-field shape with the rendering in the
// second position, so callers pick fields by index where the layouts differ.
type Record struct {
	Fields [RecordFields]string
}

// ImagePath returns the first field.
func (r Record) ImagePath() string { return r.Fields[0] }

// SymbolID returns the source-provided identifier in the second field.
// It is not the id assigned by a Vocabulary.
func (r Record) SymbolID() string { return r.Fields[1] }

// Latex returns the symbol rendering in the third field.
func (r Record) Latex() string { return r.Fields[2] }

// Field returns the i-th field (0-based) or "" when i is out of range.
func (r Record) Field(i int) string {
	if i < 0 || i >= RecordFields {
		return ""
	}
	return r.Fields[i]
}
