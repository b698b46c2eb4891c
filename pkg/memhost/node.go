package memhost

import (
	"fmt"

	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// node is a live view of a stored node. Reads after Remove report
// scene.ErrNotFound.
type node struct {
	h  *Host
	id string
}

func (n *node) data() (*NodeData, bool) {
	e, ok := n.h.index[n.id]
	if !ok {
		return nil, false
	}
	return e.data, true
}

func (n *node) ID() string { return n.id }

func (n *node) Kind() scene.Kind {
	n.h.mu.RLock()
	defer n.h.mu.RUnlock()
	if d, ok := n.data(); ok {
		return d.Kind
	}
	return ""
}

func (n *node) Name() string {
	n.h.mu.RLock()
	defer n.h.mu.RUnlock()
	if d, ok := n.data(); ok {
		return d.Name
	}
	return ""
}

func (n *node) Bounds() scene.Rect {
	n.h.mu.RLock()
	defer n.h.mu.RUnlock()
	if d, ok := n.data(); ok {
		return d.Bounds
	}
	return scene.Rect{}
}

func (n *node) Children() ([]scene.Node, error) {
	n.h.mu.RLock()
	defer n.h.mu.RUnlock()
	d, ok := n.data()
	if !ok {
		return nil, fmt.Errorf("node %s: %w", n.id, scene.ErrNotFound)
	}
	if !classify.Of(d.Kind).Has(classify.Children) {
		return nil, nil
	}
	out := make([]scene.Node, len(d.Children))
	for i, c := range d.Children {
		out[i] = n.h.wrap(c)
	}
	return out, nil
}

func (n *node) Get(p scene.Prop) (scene.Value, error) {
	n.h.mu.RLock()
	defer n.h.mu.RUnlock()
	d, ok := n.data()
	if !ok {
		return scene.Value{}, fmt.Errorf("node %s: %w", n.id, scene.ErrNotFound)
	}
	if !classify.Allows(classify.Of(d.Kind), p) {
		return scene.Value{}, fmt.Errorf("%s has no property %s", d.Kind, p)
	}

	var v scene.Value
	if d.Kind == scene.KindText && classify.IsSegmentField(p) {
		v = textValue(d.Runs, p)
	} else {
		v = scene.Uniform(d.Props[p])
	}
	raw, ok := v.Get()
	if !ok || raw == nil {
		return v, nil
	}
	cp, err := normalize(p, raw)
	if err != nil {
		return scene.Value{}, err
	}
	return scene.Uniform(cp), nil
}

func (n *node) Segments(fields []scene.Prop) ([]scene.Segment, error) {
	n.h.mu.RLock()
	defer n.h.mu.RUnlock()
	d, ok := n.data()
	if !ok {
		return nil, fmt.Errorf("node %s: %w", n.id, scene.ErrNotFound)
	}
	if d.Kind != scene.KindText {
		return nil, fmt.Errorf("%s has no text segments", d.Kind)
	}
	return segments(d, fields), nil
}

func (n *node) String() string { return n.id }

// page is a live view of a stored page.
type page struct {
	h  *Host
	id string
}

func (p *page) ID() string { return p.id }

func (p *page) Name() string {
	p.h.mu.RLock()
	defer p.h.mu.RUnlock()
	if pg := p.h.page(p.id); pg != nil {
		return pg.Name
	}
	return ""
}

func (p *page) Children() ([]scene.Node, error) {
	p.h.mu.RLock()
	defer p.h.mu.RUnlock()
	pg := p.h.page(p.id)
	if pg == nil {
		return nil, fmt.Errorf("page %s: %w", p.id, scene.ErrNotFound)
	}
	out := make([]scene.Node, len(pg.Children))
	for i, c := range pg.Children {
		out[i] = p.h.wrap(c)
	}
	return out, nil
}
