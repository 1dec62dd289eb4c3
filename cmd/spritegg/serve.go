package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"spritegg/internal/bridge"
	"spritegg/internal/config"
)

var (
	serveHost string
	servePort int
)

// serveCmd runs the HTTP bridge used by the editor front-end
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP builder bridge",
	Long: `Serves POST /build {"folder_path": "..."} by spawning this binary's build
command for that one folder and returning the sheet as base64.

Endpoints:
  GET  /health
  POST /build`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	srvCfg, err := bridgeConfig(c)
	if err != nil {
		return err
	}

	host, port := c.Server.Host, c.Server.Port
	if serveHost != "" {
		host = serveHost
	}
	if servePort != 0 {
		port = servePort
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Builder bridge running on http://%s", ln.Addr())))
	return bridge.New(srvCfg, nil).Serve(ctx, ln)
}

// bridgeConfig derives the bridge settings. Spawned builds get an absolute
// config path because they run with the entity's parent as working directory.
func bridgeConfig(c *config.Config) (bridge.Config, error) {
	exe, err := os.Executable()
	if err != nil {
		return bridge.Config{}, fmt.Errorf("failed to locate builder executable: %w", err)
	}

	builderConfig := c.Server.BuilderConfig
	if builderConfig == "" {
		if _, err := os.Stat(configPath); err == nil {
			builderConfig = configPath
		}
	}
	if builderConfig != "" {
		if abs, err := filepath.Abs(builderConfig); err == nil {
			builderConfig = abs
		}
	}

	return bridge.Config{
		Executable:     exe,
		ConfigPath:     builderConfig,
		FrameWidth:     c.FrameWidth(),
		FrameHeight:    c.FrameHeight(),
		MaxConnections: c.Server.MaxConnections,
		BuildTimeout:   c.GetBuildTimeout(),
	}, nil
}
