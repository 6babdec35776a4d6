package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arnegard/hake/pkg/loggrep"
)

var grepCmd = &cobra.Command{
	Use:   "grep <KEY=VALUE>",
	Args:  cobra.ExactArgs(1),
	Short: "Find past trial logs whose make invocation carried a given argument",
	Long: `grep scans .hake/log for trial logs whose recorded make invocation
included the given KEY=VALUE argument verbatim, and prints the matching
log paths.`,
	RunE: runGrep,
}

func init() {
	grepCmd.Flags().String("dir", "", "log directory to search (default: .hake/log)")
}

func runGrep(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = fmt.Sprintf("%s/%s", hakeDir, logDirName)
	}

	matches, err := loggrep.Grep(dir, args[0])
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if len(matches) == 0 {
		fmt.Println("no matching trial logs found")
		return nil
	}
	for _, m := range matches {
		fmt.Printf("%s\t%s\t%v\n", m.Path, m.Name, m.MakeArgs)
	}
	return nil
}
