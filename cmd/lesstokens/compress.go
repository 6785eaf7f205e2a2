package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kbukum/lesstokens/compression"
)

const compressLongDesc string = `Compress a prompt with the LessTokens service and print the result as JSON.

Examples:
  lesstokens compress "Summarize the following report ..."
  lesstokens compress --target-ratio 0.5 --aggressive - < prompt.txt`

type compressCommander struct {
	root            *rootOptions
	targetRatio     float64
	preserveContext bool
	aggressive      bool
}

func newCompressCmd(root *rootOptions) *cobra.Command {
	cmder := &compressCommander{root: root}

	cmd := &cobra.Command{
		Use:   "compress <prompt>",
		Short: "Compress a prompt",
		Long:  compressLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().Float64Var(&cmder.targetRatio, "target-ratio", 0, "Desired compressed/original ratio (0 to 1)")
	cmd.Flags().BoolVar(&cmder.preserveContext, "preserve-context", true, "Ask the service to keep context")
	cmd.Flags().BoolVar(&cmder.aggressive, "aggressive", false, "Compress more aggressively")

	return cmd
}

// options sends only the flags the user set.
func (c *compressCommander) options(cmd *cobra.Command) *compression.Options {
	var opts compression.Options
	set := false
	if cmd.Flags().Changed("target-ratio") {
		opts.TargetRatio = &c.targetRatio
		set = true
	}
	if cmd.Flags().Changed("preserve-context") {
		opts.PreserveContext = &c.preserveContext
		set = true
	}
	if cmd.Flags().Changed("aggressive") {
		opts.Aggressive = &c.aggressive
		set = true
	}
	if !set {
		return nil
	}
	return &opts
}

func (c *compressCommander) run(cmd *cobra.Command, arg string) error {
	ctx := cmd.Context()
	defer c.root.telemetry(ctx)()

	prompt, err := readPrompt(arg, cmd.InOrStdin())
	if err != nil {
		return err
	}

	client, err := c.root.newSDK()
	if err != nil {
		return err
	}

	res, err := client.CompressPrompt(ctx, prompt, c.options(cmd))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
