package types

// DocumentCategory classifies uploaded documents.
type DocumentCategory string

// Document categories.
const (
	CategoryArchive  DocumentCategory = "Archive"
	CategoryTraining DocumentCategory = "Training"
)

// Valid reports whether c is a known category.
func (c DocumentCategory) Valid() bool {
	return c == CategoryArchive || c == CategoryTraining
}

// Document references a file by path. CreatedAt is epoch milliseconds.
type Document struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Category  DocumentCategory `json:"category"`
	Path      string           `json:"path"`
	CreatedAt int64            `json:"createdAt"`
}
