package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bling-controller/internal/bling"
	"bling-controller/internal/config"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick patterns from a numbered menu",
	Long: `Shows the numbered pattern menu and runs each selection on the local strip.
Enter a number to run it, "b <0-255>" to set the brightness, an empty line to stop and
"q" to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Strip.Driver == config.DriverTerminal {
			// the preview owns the terminal and would swallow the menu's input
			log.Println("Terminal driver cannot share the menu's terminal, using memory")
			cfg.Strip.Driver = config.DriverMemory
		}

		p, closeFn, err := openLocal(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		return runMenu(p, os.Stdin, cmd.OutOrStdout())
	},
}

func runMenu(p *bling.Processor, in io.Reader, out io.Writer) error {
	fmt.Fprint(out, bling.MenuText())
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			p.Stop()
			fmt.Fprintln(out, "stopped")
		case line == "q":
			return nil
		case line == "?":
			fmt.Fprint(out, bling.MenuText())
		case strings.HasPrefix(line, "b "):
			level, err := strconv.Atoi(strings.TrimSpace(line[2:]))
			if err == nil {
				err = p.SetBrightness(level)
			}
			if err != nil {
				fmt.Fprintf(out, "brightness: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "brightness %d\n", level)
		default:
			selection, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintf(out, "not a selection: %q\n", line)
				continue
			}
			command, err := bling.MenuCommand(selection)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprintf(out, "%s -> %s\n", command, p.Process(command))
		}
	}
}
