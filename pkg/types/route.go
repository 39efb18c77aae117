package types

// RouteEntry resolves a message to a cluster name. It is opaque to the
// router beyond ClusterName().
type RouteEntry interface {
	ClusterName() string
}

// Route may or may not resolve to a RouteEntry, depending on the
// (out-of-scope) route table configuration.
type Route interface {
	RouteEntry() RouteEntry
}

// Router resolves a Route for a given message.
type Router interface {
	Route(meta MessageMetadata) Route
}
