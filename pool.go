package main

// Pool is the live collection of one entity variant, kept in spawn order.
// Entities are marked dead during a pass and dropped by Compact before the
// pass ends, so later steps of the same tick never see them.
type Pool[T Entity] struct {
	items []T
}

// Add appends e
func (p *Pool[T]) Add(e T) {
	p.items = append(p.items, e)
}

// Len returns the number of entries, dead ones included until compacted
func (p *Pool[T]) Len() int {
	return len(p.items)
}

// Items exposes the backing slice. Callers must not append to it.
func (p *Pool[T]) Items() []T {
	return p.items
}

// Compact drops dead entries in place, preserving order, and reports each
// removed entry to onRemove.
func (p *Pool[T]) Compact(onRemove func(Entity)) int {
	kept := p.items[:0]
	removed := 0
	for _, e := range p.items {
		if e.IsAlive() {
			kept = append(kept, e)
			continue
		}
		removed++
		if onRemove != nil {
			onRemove(e)
		}
	}
	var zero T
	for i := len(kept); i < len(p.items); i++ {
		p.items[i] = zero
	}
	p.items = kept
	return removed
}

// Clear removes every entry
func (p *Pool[T]) Clear(onRemove func(Entity)) {
	if onRemove != nil {
		for _, e := range p.items {
			onRemove(e)
		}
	}
	clear(p.items)
	p.items = p.items[:0]
}
