package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronolog/chronolog/internal/config"
	"github.com/chronolog/chronolog/internal/daemon"
	"github.com/chronolog/chronolog/internal/metrics"
	"github.com/chronolog/chronolog/internal/watcher"
)

var daemonForeground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Control the background watcher daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the watcher daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if daemonForeground {
			return runDaemonForeground()
		}
		return startDaemonDetached()
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background watcher daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		metaDir, exe := repo.MetaDir(), exePath()
		repo.Close()

		if err := daemon.Stop(metaDir, exe); err != nil {
			return err
		}
		fmt.Println("Watcher daemon stopped.")
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the watcher daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		metaDir, exe := repo.MetaDir(), exePath()
		repo.Close()

		status, err := daemon.QueryStatus(metaDir, exe)
		if err != nil {
			return err
		}
		if status.Running {
			fmt.Printf("Watcher daemon running (pid %d)\n", status.PID)
		} else {
			fmt.Println("Watcher daemon not running.")
		}
		return nil
	},
}

func startDaemonDetached() error {
	repo := openRepo()
	metaDir, root, exe := repo.MetaDir(), repo.Root(), exePath()
	repo.Close()

	pid, err := daemon.Start(metaDir, root, exe)
	if err != nil {
		return err
	}
	fmt.Printf("Watcher daemon started (pid %d)\n", pid)
	return nil
}

func runDaemonForeground() error {
	repo := openRepo()
	defer repo.Close()

	if addr := config.MetricsAddr(); addr != "" {
		lis, err := metrics.ServeLoopback(addr)
		if err != nil {
			return fmt.Errorf("serve metrics on %s: %w", addr, err)
		}
		defer lis.Close()
	}

	var w *watcher.Watcher
	start := func() error {
		var err error
		w, err = watcher.New(repo.Root(), repo, daemon.NewLogger(repo.MetaDir()))
		if err != nil {
			return err
		}
		w.Start()
		return nil
	}
	stop := func() {
		if w != nil {
			w.Stop()
		}
	}

	return daemon.RunForeground(context.Background(), start, stop)
}

func exePath() string {
	exe, err := os.Executable()
	if err != nil {
		fatal(err)
	}
	return exe
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "run the watcher in the foreground instead of detaching (used internally by \"daemon start\" when detaching)")
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}
