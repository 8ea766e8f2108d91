package reachability

import "errors"

var (
	// ErrIndexNotBuilt is returned by queries while no index is persisted.
	ErrIndexNotBuilt = errors.New("reachability index not built")
	// ErrIndexAlreadyExists is returned by CreateIndex when an index is
	// already persisted. Drop it first.
	ErrIndexAlreadyExists = errors.New("reachability index already exists")
)
