package pharmacy

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrLotNotFound       = errors.New("lot not found")
	ErrLotAlreadyExists  = errors.New("a lot with this number already exists for this product")
	ErrInsufficientStock = errors.New("insufficient stock for requested quantity")
	ErrLotExpired        = errors.New("lot is expired")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)
