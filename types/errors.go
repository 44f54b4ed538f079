package types

import "errors"

var (
	ErrEmptyStory   = errors.New("story text is empty")
	ErrEmptyTitle   = errors.New("title is empty")
	ErrParse        = errors.New("planner reply could not be parsed")
	ErrMissingAsset = errors.New("missing job asset")
)
