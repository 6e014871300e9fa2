package storage

import "errors"

// ErrCorrupt signals the backing database file failed integrity checks;
// the store refuses to serve reads or writes in this state
var ErrCorrupt = errors.New("history database is corrupt")
