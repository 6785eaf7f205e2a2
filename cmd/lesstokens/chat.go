package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/lesstokens/llm"
	"github.com/kbukum/lesstokens/sdk"
	"github.com/kbukum/lesstokens/util"
)

const chatLongDesc string = `Compress a prompt, send the compressed text to the configured LLM
provider and print the reply. Token usage, including compression savings,
is reported on stderr.

Vendor settings default to the llm section of the config file
(LESSTOKENS_LLM_API_KEY, LESSTOKENS_LLM_MODEL, ...).

Examples:
  lesstokens chat --provider openai --model gpt-4o-mini "Explain ..."
  lesstokens chat --stream --system "Answer briefly" - < question.txt`

type chatCommander struct {
	root        *rootOptions
	model       string
	llmAPIKey   string
	llmBaseURL  string
	temperature float64
	maxTokens   int
	stream      bool
	role        string
	system      string
}

func newChatCmd(root *rootOptions) *cobra.Command {
	cmder := &chatCommander{root: root}

	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Compress a prompt and send it to an LLM",
		Long:  chatLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model name")
	cmd.Flags().StringVar(&cmder.llmAPIKey, "llm-api-key", "", "Vendor API key")
	cmd.Flags().StringVar(&cmder.llmBaseURL, "llm-base-url", "", "Vendor API base URL")
	cmd.Flags().Float64Var(&cmder.temperature, "temperature", 0, "Sampling temperature")
	cmd.Flags().IntVar(&cmder.maxTokens, "max-tokens", 0, "Completion token limit")
	cmd.Flags().BoolVarP(&cmder.stream, "stream", "s", false, "Print the reply as it arrives")
	cmd.Flags().StringVar(&cmder.role, "role", sdk.DefaultMessageRole, "Role of the compressed message")
	cmd.Flags().StringVar(&cmder.system, "system", "", "System message sent before the prompt")

	return cmd
}

// llmConfig starts from the configured defaults and applies the flags the
// user set.
func (c *chatCommander) llmConfig(cmd *cobra.Command) llm.Config {
	def := c.root.cfg.LLM
	cfg := llm.Config{
		APIKey:      def.APIKey,
		Model:       def.Model,
		BaseURL:     def.BaseURL,
		Temperature: def.Temperature,
		MaxTokens:   def.MaxTokens,
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = c.model
	}
	if flags.Changed("llm-api-key") {
		cfg.APIKey = c.llmAPIKey
	}
	if flags.Changed("llm-base-url") {
		cfg.BaseURL = c.llmBaseURL
	}
	if flags.Changed("temperature") {
		cfg.Temperature = util.Ptr(c.temperature)
	}
	if flags.Changed("max-tokens") {
		cfg.MaxTokens = util.Ptr(c.maxTokens)
	}
	return cfg
}

func (c *chatCommander) processOptions(cmd *cobra.Command, prompt string) sdk.ProcessOptions {
	opts := sdk.ProcessOptions{
		Prompt:      prompt,
		LLMConfig:   c.llmConfig(cmd),
		MessageRole: c.role,
	}
	if c.system != "" {
		opts.Messages = []llm.Message{{Role: llm.RoleSystem, Content: c.system}}
	}
	return opts
}

func (c *chatCommander) run(cmd *cobra.Command, arg string) error {
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
	opts := c.processOptions(cmd, prompt)
	out := cmd.OutOrStdout()

	if !c.stream {
		resp, err := client.ProcessPrompt(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Content)
		printUsage(cmd.ErrOrStderr(), &resp.Usage)
		return nil
	}

	stream, err := client.ProcessPromptStream(ctx, opts)
	if err != nil {
		return err
	}
	_, usage, err := llm.Collect(ctx, stream, func(chunk llm.StreamChunk) {
		fmt.Fprint(out, chunk.Content)
	})
	fmt.Fprintln(out)
	if err != nil {
		return err
	}
	printUsage(cmd.ErrOrStderr(), usage)
	return nil
}

func printUsage(w io.Writer, u *llm.Usage) {
	if u == nil {
		return
	}
	fmt.Fprintf(w, "tokens: prompt=%d completion=%d total=%d", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	if u.CompressedTokens != nil {
		fmt.Fprintf(w, " compressed=%d savings=%.2f%%", *u.CompressedTokens, util.Deref(u.Savings))
	}
	fmt.Fprintln(w)
}
