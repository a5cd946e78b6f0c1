package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// rootFlags are shared by every subcommand. Each can also be set through a
// CLASSROOM_ prefixed environment variable, e.g. CLASSROOM_HTTP_PORT.
type rootFlags struct {
	port       string
	httpPort   string
	configPath string
	debug      bool
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	v := viper.New()
	v.SetEnvPrefix("CLASSROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "classroom-levels",
		Short: "Classroom coordinator running formation and quiz levels for connected students",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(flags.debug, "console")
		},
		SilenceUsage: true,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&flags.port, "port", "", "tcp port students connect to, overrides server.port (env: CLASSROOM_PORT)")
	fs.StringVar(&flags.httpPort, "http-port", "", "http port for /ws, /status and /qr, overrides server.http_port (env: CLASSROOM_HTTP_PORT)")
	fs.StringVar(&flags.configPath, "config", "config/config.yaml", "path to YAML config (env: CLASSROOM_CONFIG)")
	fs.BoolVar(&flags.debug, "debug", false, "enable debug logging (env: CLASSROOM_DEBUG)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(NewStartCmd(flags))
	cmd.AddCommand(NewMigrateCmd(&flags.configPath))
	cmd.AddCommand(NewImportCatalogCmd(&flags.configPath))
	cmd.AddCommand(NewValidateCmd(&flags.configPath))
	return cmd
}

// setupLogging configures the global zerolog logger. format is "console" or "json".
func setupLogging(debug bool, format string) {
	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
