package engine

import "errors"

// ErrNoWatches is returned by Run when an evaluation touched no watchable
// inputs. With nothing to wait on the result could never change, so the
// loop stops visibly instead of blocking forever.
var ErrNoWatches = errors.New("evaluation returned no watches: result can never change")
