package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Run one bling command on the local strip",
	Long: `Processes a single command such as "Pattern=Scanner,Color=BLUE,Speed=FAST" on the
local strip and prints its status. Animations keep running until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		p, closeFn, err := openLocal(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		status := p.Process(strings.Join(args, " "))
		fmt.Fprintln(cmd.OutOrStdout(), status)

		if p.Running() != "" {
			waitForSignal()
		}
		return nil
	},
}
