package memhost

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/canvasport/pkg/scene"
)

// CreateInstance creates an INSTANCE of component on the current page. The
// instance gets a copy of the component's properties and children.
func (h *Host) CreateInstance(_ context.Context, component scene.Node) (scene.Node, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ce, err := h.lookup(component)
	if err != nil {
		return nil, err
	}
	if ce.data.Kind != scene.KindComponent {
		return nil, fmt.Errorf("instantiate %s: not a COMPONENT", ce.data.Kind)
	}

	inst := copyTree(ce.data)
	inst.Kind = scene.KindInstance
	if inst.Props == nil {
		inst.Props = make(scene.Props)
	}
	inst.Props[scene.PropMainComponent] = ce.data.ID

	p := h.page(h.doc.CurrentPage)
	p.Children = append(p.Children, inst)
	if err := h.indexTree(inst, nil, p); err != nil {
		return nil, err
	}
	return h.wrap(inst), nil
}

func copyTree(d *NodeData) *NodeData {
	out := &NodeData{
		ID:     uuid.NewString(),
		Name:   d.Name,
		Kind:   d.Kind,
		Bounds: d.Bounds,
		Props:  d.Props.Clone(),
	}
	for _, r := range d.Runs {
		out.Runs = append(out.Runs, Run{Start: r.Start, End: r.End, Styles: r.Styles.Clone()})
	}
	for _, c := range d.Children {
		out.Children = append(out.Children, copyTree(c))
	}
	return out
}
