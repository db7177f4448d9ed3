package platform

// Registry dispatches URLs to handlers in fixed priority order.
type Registry struct {
	handlers []Handler
}

// NewRegistry builds the registry with every supported platform.
func NewRegistry(deps Deps) *Registry {
	return &Registry{handlers: handlers(deps)}
}

// HandlerFor returns the first handler claiming the URL, or nil when no
// platform matches. A nil result is the "unsupported platform" outcome,
// not a fault.
func (r *Registry) HandlerFor(url string) Handler {
	for _, h := range r.handlers {
		if h.CanHandle(url) {
			return h
		}
	}
	return nil
}

// ByTag returns the handler with the given platform tag, or nil.
func (r *Registry) ByTag(tag string) Handler {
	for _, h := range r.handlers {
		if h.Tag() == tag {
			return h
		}
	}
	return nil
}

// Tags lists every supported platform tag in priority order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.handlers))
	for _, h := range r.handlers {
		tags = append(tags, h.Tag())
	}
	return tags
}
