package rate

import "errors"

// ErrRateLimited is returned once a login has used up its failure budget.
var ErrRateLimited = errors.New("rate limited")
