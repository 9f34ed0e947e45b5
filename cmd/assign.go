package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/formflight/app"
)

var rosterPath string

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Run one reassignment over a roster file and print the pairing",
	RunE:  runAssign,
}

func init() {
	assignCmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "roster file (yaml or json)")
	_ = assignCmd.MarkFlagRequired("roster")
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rep, err := app.AssignOnce(rosterPath, cfg.Assignment)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "solver: %s\n", cfg.Assignment.Solver)
	fmt.Fprint(out, rep.Result.Binary.String())
	for _, p := range rep.Pairs {
		fmt.Fprintf(out, "%s -> %s\n", p.Agent.Name, p.Target.Name)
	}
	return nil
}
