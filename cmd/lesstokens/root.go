package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/lesstokens/config"
	"github.com/kbukum/lesstokens/logger"
	"github.com/kbukum/lesstokens/observability"
	"github.com/kbukum/lesstokens/sdk"
	"github.com/kbukum/lesstokens/version"
)

const rootLongDesc string = `LessTokens compresses prompts before they reach an LLM.

Settings come from a YAML config file, an optional .env file and
LESSTOKENS_* environment variables, in that order. Flags win over all of them.

Commands:
  lesstokens compress "<prompt>"   Compress a prompt and print the result
  lesstokens chat "<prompt>"       Compress a prompt, then send it to an LLM
  lesstokens serve                 Run the HTTP gateway

A prompt of "-" is read from stdin.`

const rootShortDesc string = "LessTokens - prompt compression for LLM calls"

// rootOptions holds the persistent flags and the state loaded from them.
type rootOptions struct {
	configFile string
	envFile    string
	provider   string
	apiKey     string
	baseURL    string
	logLevel   string

	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "lesstokens",
		Short:        rootShortDesc,
		Long:         rootLongDesc,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Config file (default: ./lesstokens.yml, ~/.lesstokens.yml)")
	flags.StringVar(&opts.envFile, "env-file", "", "Env file (default: ./.env.lesstokens, ./.env)")
	flags.StringVarP(&opts.provider, "provider", "p", "", "LLM provider (openai, anthropic, google, deepseek)")
	flags.StringVar(&opts.apiKey, "api-key", "", "LessTokens API key")
	flags.StringVar(&opts.baseURL, "base-url", "", "Compression service URL")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCompressCmd(opts),
		newChatCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// load reads the configuration, applies flag overrides and builds the logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	var loaderOpts []config.LoaderOption
	if o.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.envFile))
	}

	cfg, err := config.Load(loaderOpts...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = o.provider
	}
	if flags.Changed("api-key") {
		cfg.APIKey = o.apiKey
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(o.logLevel)
		if err := cfg.Logging.Validate(); err != nil {
			return err
		}
	}

	o.cfg = cfg
	o.log = logger.NewWithWriter(&cfg.Logging, config.DefaultServiceName, cmd.ErrOrStderr())
	return nil
}

func (o *rootOptions) newSDK() (*sdk.SDK, error) {
	retry := o.cfg.RetryPolicy()
	return sdk.New(sdk.Config{
		APIKey:   o.cfg.APIKey,
		Provider: o.cfg.Provider,
		BaseURL:  o.cfg.BaseURL,
		Timeout:  o.cfg.Timeout,
		Retry:    &retry,
		TLS:      &o.cfg.TLS,
		Logger:   o.log,
	})
}

// telemetry installs the OTLP exporters when enabled. The returned function
// flushes them and never fails the command.
func (o *rootOptions) telemetry(ctx context.Context) func() {
	tcfg := o.cfg.Telemetry
	if tcfg.ServiceVersion == "" {
		tcfg.ServiceVersion = version.Short()
	}
	shutdown, err := observability.Setup(ctx, tcfg, o.log)
	if err != nil {
		o.log.Warn("Telemetry disabled", logger.ErrorFields("telemetry_setup", err))
		return func() {}
	}
	return func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			o.log.Warn("Telemetry flush failed", logger.ErrorFields("telemetry_shutdown", err))
		}
	}
}

// readPrompt returns the prompt argument, or stdin when it is "-".
func readPrompt(arg string, stdin io.Reader) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
