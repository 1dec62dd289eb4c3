package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spritegg/internal/config"
	"spritegg/internal/sprite"
)

var inspectFrames []string

// inspectCmd shows how an entity folder would be laid out
var inspectCmd = &cobra.Command{
	Use:   "inspect [entity-dir]",
	Short: "Show type, output name, resolved actions and grid shape of one folder",
	Long: `Resolves and plans one entity folder without running any image backend.

Example:
  spritegg inspect assets/W_Sword`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringArrayVar(&inspectFrames, "frames-per-view", nil, "Override frames per view as action=N (repeatable)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	name := filepath.Base(dir)

	typ, ok := sprite.Classify(name, c.TypeOverrides)
	profile, hasProfile := c.Profile(string(typ))
	if !ok || !hasProfile {
		return fmt.Errorf("%w: %s", sprite.ErrUnknownPrefix, name)
	}
	overrides, err := config.ParseFramesPerViewOverrides(inspectFrames)
	if err != nil {
		return err
	}
	profile = profile.WithFramesOverrides(overrides)

	output, err := sprite.OutputName(name)
	if err != nil {
		return err
	}
	folders, err := sprite.ReadFolderSet(dir)
	if err != nil {
		return err
	}
	entries, err := sprite.ResolveActions(sprite.ResolveInput{
		EntityName:     name,
		Folders:        folders,
		Actions:        profile.Actions,
		AttackPriority: c.AttackFolderPriority,
		ExtraFolders:   c.AttackExtraFolders,
	})
	if err != nil {
		return err
	}
	grid, newest, err := sprite.Plan(dir, entries, profile.InputOrder(c.InputDirectionOrder), profile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, field("Folder", name))
	fmt.Fprintln(out, field("Type", typ.String()))
	fmt.Fprintln(out, field("Output", filepath.Join(dir, output)))
	fmt.Fprintln(out, field("Actions", fmt.Sprintf("%d", len(entries))))
	for _, e := range entries {
		fmt.Fprintf(out, "  %s\n", e)
	}
	fmt.Fprintln(out, field("Grid", fmt.Sprintf("%d columns x %d rows", grid.Columns, grid.RowCount())))
	fmt.Fprintln(out, field("Sheet", fmt.Sprintf("%dx%d px", grid.Columns*c.FrameWidth(), grid.RowCount()*c.FrameHeight())))
	fmt.Fprintln(out, field("Rows", strings.Join(profile.RowDirectionOrder, ", ")))
	fmt.Fprintln(out, field("Newest frame", newest.Format("2006-01-02 15:04:05")))
	return nil
}
