package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/lesstokens/gateway"
)

const serveLongDesc string = `Run the HTTP gateway until interrupted.

The gateway exposes /v1/compress, /v1/chat and /v1/chat/stream. Requests
that leave vendor settings empty fall back to the llm section of the config,
so the vendor key can stay on the server.

Examples:
  lesstokens serve --addr :9090
  LESSTOKENS_TELEMETRY_ENABLED=true lesstokens serve`

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				root.cfg.Gateway.Addr = addr
			}
			return runServe(cmd, root)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8080)")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions) error {
	ctx := cmd.Context()
	defer root.telemetry(ctx)()

	client, err := root.newSDK()
	if err != nil {
		return err
	}

	srv := gateway.New(root.cfg.Gateway, client, root.cfg.LLM, root.log)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return srv.Stop(context.WithoutCancel(ctx))
}
