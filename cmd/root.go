// The cmd package implements the interface for the powerctl CLI. The files
// contained in this package only handle CLI arguments and pass them on to
// the driver, daemon and cache packages.
//
// For example:
//
//	cmd/power.go   --> pkg/driver ( driver.New() )
//	cmd/ports.go   --> internal/cache/sqlite ( sqlite.PortCache )
//	cmd/daemon.go  --> pkg/daemon ( daemon.Server.Run() )
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	powerctl "github.com/OpenCHAMI/powerctl/internal"
	"github.com/OpenCHAMI/powerctl/internal/log"
	"github.com/OpenCHAMI/powerctl/internal/util"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var transcript *log.Transcript

// The `root` command doesn't do anything on it's own except display
// a help message and then exits.
var rootCmd = &cobra.Command{
	Use:           "powerctl",
	Short:         "Power control for devices under test",
	Long:          "Switch devices under test on and off through an operator prompt, an external command or a networked PDU.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := log.InitWithLogLevel(log.LogLevel(viper.GetString("log-level")), viper.GetString("log-file")); err != nil {
			return err
		}
		var err error
		transcript, err = log.NewTranscript(viper.GetString("transcript"))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if transcript != nil {
			if err := transcript.Close(); err != nil {
				zlog.Warn().Err(err).Msg("failed to close transcript")
			}
		}
		if err := log.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	},
}

// This Execute() function is called from main to run the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	powerctl.SetDefaults()
	cobra.OnInitialize(InitializeConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Set the config file path")
	checkBindFlagError(viper.BindPFlag("config", flags.Lookup("config")))

	addPersistentFlag("ports-file", rootCmd, "ports-file", "P", "", "Set the YAML or JSON file with port descriptors")
	addPersistentFlag("cache", rootCmd, "cache", "", viper.GetString("cache"), "Set the port cache path")
	addPersistentFlag("concurrency", rootCmd, "concurrency", "j", viper.GetInt("concurrency"), "Set the number of ports switched in parallel")
	addPersistentFlag("timeout", rootCmd, "timeout", "t", viper.GetDuration("timeout"), "Set the timeout for network requests")
	addPersistentFlag("log-level", rootCmd, "log-level", "l", viper.GetString("log-level"), "Set the log level (debug|info|warn|error|disabled|trace)")
	addPersistentFlag("log-file", rootCmd, "log-file", "", "", "Also write logs to this file")
	addPersistentFlag("transcript", rootCmd, "transcript", "", "", "Write the output of external power commands to this file")

	// drivers
	addPersistentFlag("username", rootCmd, "username", "u", "", "Set the username for every PDU, overriding the secret store")
	addPersistentFlag("password", rootCmd, "password", "p", "", "Set the password for every PDU, overriding the secret store")
	addPersistentFlag("network.cacert", rootCmd, "cacert", "", "", "Set the path to CA cert file (defaults to system CAs when blank)")
	addPersistentFlag("network.insecure", rootCmd, "insecure", "i", false, "Ignore TLS certificate errors")
	addPersistentFlag("secrets.file", rootCmd, "secrets-file", "", viper.GetString("secrets.file"), "Set path to the PDU secrets file")
	addPersistentFlag("secrets.backend", rootCmd, "secrets-backend", "", viper.GetString("secrets.backend"), "Set the secret store backend (local|keyring)")
	addPersistentFlag("external.timeout", rootCmd, "command-timeout", "", viper.GetDuration("external.timeout"), "Set the timeout for external power commands")
	addPersistentFlag("external.sentinel", rootCmd, "sentinel", "", viper.GetString("external.sentinel"), "Set the line external commands print when done")
}

func checkBindFlagError(err error) {
	if err != nil {
		zlog.Error().Err(err).Msg("failed to bind cobra/viper flag")
	}
}

// addFlag() registers a local flag on cmd whose type follows value and
// binds it to the viper key.
func addFlag(key string, cmd *cobra.Command, name string, short string, value any, usage string) {
	bindFlag(key, cmd.Flags(), name, short, value, usage)
}

// addPersistentFlag() is addFlag() for flags inherited by subcommands.
func addPersistentFlag(key string, cmd *cobra.Command, name string, short string, value any, usage string) {
	bindFlag(key, cmd.PersistentFlags(), name, short, value, usage)
}

func bindFlag(key string, flags *pflag.FlagSet, name string, short string, value any, usage string) {
	switch v := value.(type) {
	case string:
		flags.StringP(name, short, v, usage)
	case bool:
		flags.BoolP(name, short, v, usage)
	case int:
		flags.IntP(name, short, v, usage)
	case time.Duration:
		flags.DurationP(name, short, v, usage)
	case []string:
		flags.StringSliceP(name, short, v, usage)
	default:
		panic(fmt.Sprintf("unsupported flag type %T for --%s", value, name))
	}
	checkBindFlagError(viper.BindPFlag(key, flags.Lookup(name)))
}

// InitializeConfig() loads the config file given with --config, or the
// default one when it exists. Environment variables prefixed with
// POWERCTL_ override both.
func InitializeConfig() {
	viper.SetEnvPrefix("powerctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	path := viper.GetString("config")
	if path == "" {
		path = powerctl.DefaultConfigPath()
		if _, exists := util.PathExists(path); !exists {
			return
		}
	}
	if err := powerctl.LoadConfig(path); err != nil {
		zlog.Error().Err(err).Msg("failed to load config")
	}
}
