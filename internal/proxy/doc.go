package proxy

// Package proxy holds the proxy endpoint store: loading endpoint URIs from a
// file, tracking which have been attempted in the current rotation cycle,
// and selecting a live endpoint by probing it against the target platform
// and an echo service.
