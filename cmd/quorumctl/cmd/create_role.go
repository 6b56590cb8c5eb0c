package cmd

import (
	"github.com/spf13/cobra"
)

var createRoleOut string

// createRoleCmd is the role-file counterpart of create-family: same
// "thin skeleton" contract (spec.md §1 non-goal: no generation logic).
var createRoleCmd = &cobra.Command{
	Use:   "create-role <description>",
	Short: "Write a minimal skeleton role file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeRoleSkeleton(args[0], createRoleOut)
	},
}

func init() {
	createRoleCmd.Flags().StringVar(&createRoleOut, "out", "role.json", "output path for the skeleton role file")
}

func writeRoleSkeleton(description, path string) error {
	skeleton := map[string]any{
		"id":              "role",
		"role":            description,
		"prompt_template": "{task}\n\n{snapshot}",
		"instances":       1,
	}
	return writeJSONSkeleton(path, skeleton)
}
