package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/portable"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	detailKeyStyle  = lipgloss.NewStyle().Foreground(colorSubtle).Width(22)
	detailValStyle  = lipgloss.NewStyle().Foreground(colorBright)
	detailHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var stored bool

	cmd := &cobra.Command{
		Use:   "browse [bundle]",
		Short: "Browse a bundle's nodes interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], stored)
		},
	}
	cmd.Flags().BoolVar(&stored, "stored", false, "treat the argument as a stored bundle id")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, source string, stored bool) error {
	b, err := c.loadBundle(ctx, source, stored)
	if err != nil {
		return err
	}
	if len(b.Nodes) == 0 {
		printInfo("Bundle has no nodes")
		return nil
	}
	_, err = tea.NewProgram(NewNodeListModel(b), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// NodeListModel - Interactive node browser
// =============================================================================

// nodeRow is one node of the flattened tree.
type nodeRow struct {
	node  *portable.Node
	depth int
}

// NodeListModel is the bubbletea model for browsing a bundle's nodes.
type NodeListModel struct {
	Bundle  *portable.Bundle
	Rows    []nodeRow
	Cursor  int
	Height  int
	Offset  int
	Details bool
}

// NewNodeListModel flattens b's node tree in pre-order.
func NewNodeListModel(b *portable.Bundle) NodeListModel {
	var rows []nodeRow
	_ = portable.Walk(b.Nodes, func(n, _ *portable.Node, depth int) error {
		rows = append(rows, nodeRow{node: n, depth: depth})
		return nil
	})
	return NodeListModel{
		Bundle:  b,
		Rows:    rows,
		Height:  15,
		Details: true,
	}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = len(m.Rows) - 1
			m.Offset = max(0, m.Cursor-m.Height+1)
		case "enter", " ":
			m.Details = !m.Details
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-16, 5)
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	title := "Bundle"
	if doc := m.Bundle.Metadata.Document; doc != "" {
		title += " · " + doc
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		image := "—"
		if r.node.Image != nil {
			image = r.node.Image.File
		}
		name := strings.Repeat("  ", r.depth) + r.node.Name
		size := fmt.Sprintf("%gx%g", r.node.Width, r.node.Height)
		rows = append(rows, []string{cursor, name, string(r.node.Kind), size, image})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorSubtle).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("", "Name", "Kind", "Size", "Image").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle()
			if col >= 2 {
				base = base.Foreground(colorMuted)
			}
			if m.Offset+row == m.Cursor {
				return base.Foreground(colorOK).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))
	b.WriteString("\n")

	if m.Details && m.Cursor < len(m.Rows) {
		b.WriteString("\n")
		b.WriteString(nodeDetails(m.Rows[m.Cursor].node))
	}
	return b.String()
}

// nodeDetails lists the node's position and captured properties.
func nodeDetails(n *portable.Node) string {
	var b strings.Builder
	b.WriteString(detailHeadStyle.Render(n.Name))
	b.WriteString("\n")

	line := func(k, v string) {
		b.WriteString(detailKeyStyle.Render(k) + " " + detailValStyle.Render(v) + "\n")
	}
	line("id", orDash(n.ID))
	line("position", fmt.Sprintf("%g, %g", n.X, n.Y))
	for _, k := range slices.Sorted(maps.Keys(n.Props)) {
		line(string(k), truncate(fmt.Sprintf("%v", n.Props[k]), 60))
	}
	if len(n.Segments) > 0 {
		line("segments", fmt.Sprintf("%d", len(n.Segments)))
	}
	if ref := n.Image; ref != nil {
		where := fmt.Sprintf("%s[%d]", ref.Slot, ref.Index)
		if ref.Segment != nil {
			where = fmt.Sprintf("segment %d %s", *ref.Segment, where)
		}
		line("image", fmt.Sprintf("%s (%s)", ref.File, where))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
