package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

var createFamilyOut string

// createFamilyCmd is deliberately thin (spec.md §1 places family/role
// *generation* out of scope as an external "creator tool" concern): it
// writes a minimal valid skeleton a human or external tool then edits,
// exercising the same internal/config validation path as any other
// family file.
var createFamilyCmd = &cobra.Command{
	Use:   "create-family <description>",
	Short: "Write a minimal skeleton family config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeFamilySkeleton(args[0], createFamilyOut)
	},
}

func init() {
	createFamilyCmd.Flags().StringVar(&createFamilyOut, "out", "family.json", "output path for the skeleton family config")
}

func writeFamilySkeleton(description, path string) error {
	skeleton := map[string]any{
		"system_rules":   description,
		"final_role_id":  "writer",
		"roles": []map[string]any{
			{"file": "writer.json", "id": "writer"},
		},
		"paths": map[string]any{
			"run_dir_template": "runs/<run_id>",
		},
		"coordination": map[string]any{
			"task_board_path_template": "runs/<run_id>/task_board.json",
			"log_path_template":        "runs/<run_id>/coordination.log",
		},
	}
	return writeJSONSkeleton(path, skeleton)
}

func writeJSONSkeleton(path string, v any) error {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return core.ErrConfig("SKELETON_MARSHAL_FAILED", err.Error(), path)
	}
	if _, err := os.Stat(path); err == nil {
		return core.ErrConfig("SKELETON_ALREADY_EXISTS", "refusing to overwrite an existing file", path)
	}
	if err := os.WriteFile(path, append(blob, '\n'), 0o644); err != nil {
		return core.ErrConfig("SKELETON_WRITE_FAILED", err.Error(), path)
	}
	return nil
}
