package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Host       string
	Port       int
	MQTTBroker string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway",
		Long: `Start the HTTP gateway.

Configuration is read from the config file, then the environment, then the
flags. API_KEY (at least 32 characters) and SECRET are required.

Example:
  API_KEY=... SECRET=... actiongate serve --port 20000
  actiongate serve -c /etc/actiongate.toml --mqtt-broker tcp://localhost:1883`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "listen host")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "listen port")
	cmd.Flags().StringVar(&opts.MQTTBroker, "mqtt-broker", "", "MQTT broker URL for catalog announcements")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.Host
	}
	if flags.Changed("port") {
		cfg.Port = opts.Port
	}
	if flags.Changed("mqtt-broker") {
		cfg.MQTTBroker = opts.MQTTBroker
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	gw, err := NewGateway(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return gw.Run(ctx, cfg.ShutdownTimeout.Duration)
}
