package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	glspserver "github.com/tliron/glsp/server"

	"github.com/teranos/luma-ls/config"
	"github.com/teranos/luma-ls/internal/version"
	"github.com/teranos/luma-ls/logger"
	"github.com/teranos/luma-ls/server"
)

var (
	configPath string
	listenAddr string
	jsonLogs   bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "luma-ls",
	Short: "Language server for Luma scripts",
	Long: `luma-ls analyzes Luma scripts and reports diagnostics and completion
suggestions to a connected editor.

By default the server speaks LSP over stdio, the transport most editors
use. With --listen (or server.listen in luma.toml) it instead accepts
WebSocket connections at /lsp, one session per connection.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to luma.toml (default: standard locations)")
	rootCmd.Flags().StringVar(&listenAddr, "listen", "", "serve LSP over WebSocket on this address instead of stdio")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.Log.JSON || jsonLogs, cfg.Log.Debug || debug); err != nil {
		return err
	}
	defer logger.Cleanup()

	// glsp logs through commonlog; keep it quiet unless debugging.
	verbosity := 0
	if debug || cfg.Log.Debug {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}

	if cfg.Server.Listen != "" {
		gateway := server.NewWebSocketGateway(cfg, version.Version)
		return gateway.ListenAndServe()
	}

	handler := server.NewHandler(cfg, version.Version)
	glspServer := glspserver.NewServer(handler.Protocol(), server.ServerName, debug)

	logger.Infow("serving LSP over stdio", "version", version.Version)
	return glspServer.RunStdio()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
