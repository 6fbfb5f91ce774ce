package model

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Page is a zero-based page request.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"size"`
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return p.Number * p.Size
}

type PageResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func NewPageResult[T any](items []T, total int64, p Page) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Total: total, Page: p.Number, Size: p.Size}
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Store{},
		&Category{},
		&Provider{},
		&Client{},
		&Product{},
		&ProductCategory{},
		&ProductProvider{},
		&Pos{},
		&Stock{},
		&SessionPos{},
		&Transaction{},
		&DetailTransaction{},
		&Sale{},
		&Purchase{},
		&Revision{},
	}
}
