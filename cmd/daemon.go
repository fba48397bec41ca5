package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	powerctl "github.com/OpenCHAMI/powerctl/internal"
	"github.com/OpenCHAMI/powerctl/internal/util"
	"github.com/OpenCHAMI/powerctl/pkg/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// The `daemon` command launches a long-running server exposing the known
// ports over HTTP.
var daemonCmd = &cobra.Command{
	Use: "daemon",
	Example: `  // basic launch
  powerctl daemon -P ports.yaml
  // require signed tokens
  POWERCTL_JWT_SECRET=$(openssl rand -hex 32) powerctl daemon -e 0.0.0.0:8080`,
	Short: "Launch a long-running web server, e.g. for a shared test rack",
	Long:  "Exposes every port from the ports file and cache as HTTP endpoints so the harness can switch power remotely. Calls for the same port are serialized.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := loadPorts()
		if err != nil {
			return err
		}
		secret, err := util.LoadJWTSecret(viper.GetString("daemon.jwt-secret-file"))
		if err != nil {
			return err
		}
		factory, err := newDriverFactory()
		if err != nil {
			return err
		}
		server, err := daemon.New(ports, factory.build, secret)
		if err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, viper.GetString("daemon.endpoint"))
	},
}

func init() {
	// this file initializes before root.go
	powerctl.SetDefaults()
	addFlag("daemon.endpoint", daemonCmd, "endpoint", "e", viper.GetString("daemon.endpoint"), "Root endpoint for the daemon to listen on")
	addFlag("daemon.jwt-secret-file", daemonCmd, "jwt-secret-file", "", "", "Require HS256 bearer tokens signed with the secret in this file")

	rootCmd.AddCommand(daemonCmd)
}
