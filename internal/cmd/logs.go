package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"github.com/tapeview/tapeview/internal/config"
	"github.com/tapeview/tapeview/internal/log"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View tapeview logs",
	Long:  `View the tapeview log file, optionally following it as it grows.`,
	Example: `
# Show the last lines of the log
tapeview logs

# Follow the log while a tapeview session runs
tapeview logs --follow
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		tailLines, _ := cmd.Flags().GetInt("tail")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err := config.Init(cwd, false)
		if err != nil {
			return err
		}

		logFile := log.File(cfg.DataDirectory())
		if _, err := os.Stat(logFile); os.IsNotExist(err) {
			fmt.Println("No logs yet. Logs appear once tapeview runs.")
			return nil
		}

		if err := printLastLines(logFile, tailLines); err != nil {
			return err
		}
		if !follow {
			return nil
		}

		t, err := tail.TailFile(logFile, tail.Config{
			Follow: true,
			ReOpen: true, // survive log rotation
			Location: &tail.SeekInfo{
				Offset: 0,
				Whence: io.SeekEnd,
			},
			Logger: tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("failed to tail log file: %w", err)
		}
		defer t.Cleanup()

		for {
			select {
			case <-cmd.Context().Done():
				return t.Stop()
			case line, ok := <-t.Lines:
				if !ok {
					return nil
				}
				if line.Err != nil {
					continue
				}
				fmt.Println(line.Text)
			}
		}
	},
}

func printLastLines(path string, n int) error {
	if n <= 0 {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolP("follow", "f", false, "Follow the log output")
	logsCmd.Flags().IntP("tail", "t", 500, "Number of lines to show")
}
