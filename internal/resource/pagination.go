package resource

import "math"

// PageDefaults bounds list windows.
type PageDefaults struct {
	Size    int
	MaxSize int
}

// Page is a normalised 1-based list window.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw query values: number <= 0 becomes 1, size <= 0 becomes
// the default and size above the maximum becomes the maximum. Numbers whose
// offset would overflow int are capped, which still yields an empty window.
func NewPage(number, size int, d PageDefaults) Page {
	if d.Size < 1 {
		d.Size = 20
	}
	if d.MaxSize < d.Size {
		d.MaxSize = d.Size
	}

	if number < 1 {
		number = 1
	}
	switch {
	case size < 1:
		size = d.Size
	case size > d.MaxSize:
		size = d.MaxSize
	}
	if number > math.MaxInt/size {
		number = math.MaxInt / size
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of records before the window.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ListResult is one window of the collection plus the collection size.
// TotalCount is read separately from Items and may disagree with it under
// concurrent writes.
type ListResult struct {
	Items      []Resource `json:"items"`
	TotalCount int        `json:"totalCount"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
}
