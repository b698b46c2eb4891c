package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
)

func sampleBundle() *portable.Bundle {
	b := portable.New()
	b.Metadata.Document = "Landing"
	b.Nodes = []*portable.Node{{
		ID: "G", Name: "Cards", Kind: scene.KindGroup, Width: 300, Height: 100,
		Children: []*portable.Node{
			{ID: "A", Name: "Card A", Kind: scene.KindRectangle, Width: 100, Height: 100,
				Image: &portable.ImageRef{File: "img/image_1.png", Slot: portable.SlotFills}},
			{ID: "B", Name: "Card B", Kind: scene.KindRectangle, Width: 100, Height: 100,
				Children: nil},
		},
	}, {
		ID: "T", Name: "Title", Kind: scene.KindText, Width: 80, Height: 20,
		Props: scene.Props{scene.PropCharacters: "Hello"},
	}}
	b.Assets["img/image_1.png"] = make([]byte, 2048)
	return b
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNodeListModelFlattensPreOrder(t *testing.T) {
	m := NewNodeListModel(sampleBundle())
	var got []string
	for _, r := range m.Rows {
		got = append(got, r.node.ID)
	}
	if strings.Join(got, ",") != "G,A,B,T" {
		t.Errorf("rows = %v", got)
	}
	if m.Rows[1].depth != 1 || m.Rows[3].depth != 0 {
		t.Errorf("depths = %d, %d", m.Rows[1].depth, m.Rows[3].depth)
	}
}

func TestNodeListModelNavigation(t *testing.T) {
	var model tea.Model = NewNodeListModel(sampleBundle())
	for _, k := range []string{"down", "down", "down", "down", "up"} {
		model, _ = model.Update(key(k))
	}
	m := model.(NodeListModel)
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}

	model, _ = m.Update(key("enter"))
	if model.(NodeListModel).Details {
		t.Error("enter should toggle details off")
	}

	view := m.View()
	if !strings.Contains(view, "Card B") || !strings.Contains(view, "[3/4]") {
		t.Errorf("view lacks cursor row:\n%s", view)
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}

func TestNodeListModelScrolls(t *testing.T) {
	m := NewNodeListModel(sampleBundle())
	m.Height = 2
	var model tea.Model = m
	for range 3 {
		model, _ = model.Update(key("down"))
	}
	if got := model.(NodeListModel).Offset; got != 2 {
		t.Errorf("offset = %d, want 2", got)
	}
}

func TestSummarize(t *testing.T) {
	lines := map[string]string{}
	for _, kv := range summarize(sampleBundle()) {
		lines[kv[0]] = kv[1]
	}
	checks := map[string]string{
		"Document": "Landing",
		"Roots":    "2",
		"Nodes":    "4 (depth 2)",
		"Kinds":    "GROUP 1, RECTANGLE 2, TEXT 1",
		"Images":   "1 refs, 1 files, 2.0 KiB",
	}
	for k, want := range checks {
		if lines[k] != want {
			t.Errorf("%s = %q, want %q", k, lines[k], want)
		}
	}
}

func TestBundleTreeDepth(t *testing.T) {
	full := bundleTree(sampleBundle(), 0)
	if !strings.Contains(full, "Card A") {
		t.Errorf("full tree lacks children:\n%s", full)
	}
	shallow := bundleTree(sampleBundle(), 1)
	if strings.Contains(shallow, "Card A") || !strings.Contains(shallow, "2 more") {
		t.Errorf("depth-1 tree should collapse children:\n%s", shallow)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "May 11, 2025"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}
