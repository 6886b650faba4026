package provider

import "fmt"

// Registry maps provider tags to concrete Port implementations. It is built
// once at startup; an unknown tag is a configuration error, not a
// per-request recoverable one.
type Registry struct {
	ports map[Tag]Port
}

// NewRegistry builds a registry from the given tag bindings.
func NewRegistry(ports map[Tag]Port) *Registry {
	bound := make(map[Tag]Port, len(ports))
	for tag, port := range ports {
		bound[tag] = port
	}
	return &Registry{ports: bound}
}

// Validate rejects unknown tags and nil bindings. Call it during startup so
// misconfiguration surfaces before the first command arrives.
func (r *Registry) Validate() error {
	if len(r.ports) == 0 {
		return fmt.Errorf("provider registry: no providers bound")
	}
	for tag, port := range r.ports {
		if !tag.Known() {
			return fmt.Errorf("provider registry: unknown tag %q", tag)
		}
		if port == nil {
			return fmt.Errorf("provider registry: tag %q bound to nil port", tag)
		}
	}
	return nil
}

// For resolves the port for a tag.
func (r *Registry) For(tag Tag) (Port, error) {
	port, ok := r.ports[tag]
	if !ok {
		return nil, fmt.Errorf("provider registry: no port bound for tag %q", tag)
	}
	return port, nil
}
