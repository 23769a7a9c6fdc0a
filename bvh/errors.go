package bvh

import "errors"

var (
	ErrInvalidSoupLength = errors.New("bvh: triangle soup length is not a multiple of 3")
)
