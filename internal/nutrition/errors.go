package nutrition

import "errors"

var (
	ErrNotFound        = errors.New("ingredient_not_found")
	ErrInvalidUnitSize = errors.New("invalid_unit_size")
	ErrInvalidQuantity = errors.New("invalid_quantity")
)
