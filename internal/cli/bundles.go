package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/storage"
)

// bundlesCommand creates the bundle store command.
func (c *CLI) bundlesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bundles",
		Aliases: []string{"store"},
		Short:   "Manage stored bundles",
		Long: `Manage stored bundles.

The backend is chosen by [storage] in the config file: plain files (default),
SQLite or MongoDB.`,
	}

	cmd.AddCommand(c.bundlesListCommand())
	cmd.AddCommand(c.bundlesAddCommand())
	cmd.AddCommand(c.bundlesGetCommand())
	cmd.AddCommand(c.bundlesDeleteCommand())

	return cmd
}

// withStore opens the store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(storage.Store) error) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) bundlesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored bundles, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s storage.Store) error {
				recs, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					printInfo("No stored bundles")
					return nil
				}
				fmt.Println(recordTable(recs, time.Now()))
				return nil
			})
		},
	}
}

// recordTable renders records as a table. now anchors relative times.
func recordTable(recs []storage.Record, now time.Time) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.ID,
			r.Name,
			orDash(r.Target),
			fmt.Sprintf("%d", r.NodeCount),
			fmt.Sprintf("%d", r.AssetCount),
			formatBytes(r.Size),
			formatRelativeTime(r.CreatedAt, now),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorSubtle).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("ID", "Name", "Target", "Nodes", "Assets", "Size", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0 || col == 6:
				return lipgloss.NewStyle().Foreground(colorMuted)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func (c *CLI) bundlesAddCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add [bundle]",
		Short: "Store a bundle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := portable.Import(args[0])
			if err != nil {
				return err
			}
			return c.storeBundle(cmd.Context(), name, b)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bundle name (default: document name)")
	return cmd
}

func (c *CLI) bundlesGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Write a stored bundle to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = args[0] + ".json"
			}
			return c.withStore(cmd.Context(), func(s storage.Store) error {
				b, _, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := portable.Export(b, output); err != nil {
					return err
				}
				printFile(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output bundle (.json, .yaml, .zip; default <id>.json)")
	return cmd
}

func (c *CLI) bundlesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id...]",
		Aliases: []string{"rm"},
		Short:   "Delete stored bundles",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s storage.Store) error {
				for _, id := range args {
					if err := s.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

// formatRelativeTime renders t relative to now, falling back to a date after
// a week.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
