package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/lesstokens/compression"
	apperrors "github.com/kbukum/lesstokens/errors"
	"github.com/kbukum/lesstokens/llm"
)

const compressedBody = `{"success":true,"data":{"compressed":"short","originalTokens":10,"compressedTokens":5,"tokensSaved":50,"compressionRatio":0.5}}`

type cliProvider struct {
	gotMessages []llm.Message
	gotConfig   llm.Config
}

func (p *cliProvider) Name() string { return "clitest" }

func (p *cliProvider) Chat(_ context.Context, messages []llm.Message, cfg llm.Config) (*llm.Response, error) {
	p.gotMessages, p.gotConfig = messages, cfg
	return &llm.Response{Content: "answer", Usage: llm.NewUsage(5, 3)}, nil
}

func (p *cliProvider) ChatStream(_ context.Context, messages []llm.Message, cfg llm.Config) (llm.Stream, error) {
	p.gotMessages, p.gotConfig = messages, cfg
	u := llm.NewUsage(5, 2)
	return llm.SliceStream(
		llm.StreamChunk{Content: "Hel"},
		llm.StreamChunk{Content: "lo"},
		llm.StreamChunk{Done: true, Usage: &u},
	), nil
}

var provider = &cliProvider{}

func init() {
	llm.Register("clitest", func(string, string) (llm.Provider, error) { return provider, nil })
}

type compressServer struct {
	*httptest.Server
	body map[string]any
}

func newCompressServer(t *testing.T) *compressServer {
	t.Helper()
	cs := &compressServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		cs.body = nil
		_ = json.Unmarshal(data, &cs.body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(compressedBody))
	}))
	t.Cleanup(cs.Close)
	return cs
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	provider.gotMessages, provider.gotConfig = nil, llm.Config{}

	dir := t.TempDir()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "missing.yml"),
		"--env-file", filepath.Join(dir, "missing.env"),
		"--log-level", "error",
	}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func sdkArgs(srv *compressServer) []string {
	return []string{"--provider", "clitest", "--api-key", "lt-key", "--base-url", srv.URL}
}

func TestCompressCmd(t *testing.T) {
	srv := newCompressServer(t)

	args := append([]string{"compress", "--target-ratio", "0.5"}, sdkArgs(srv)...)
	out, _, err := execute(t, "", append(args, "hello world")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res compression.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, out)
	}
	want := compression.Result{Compressed: "short", OriginalTokens: 10, CompressedTokens: 5, Savings: 50, Ratio: 0.5}
	if res != want {
		t.Errorf("expected %+v, got %+v", want, res)
	}

	if srv.body["prompt"] != "hello world" {
		t.Errorf("expected prompt sent, got %v", srv.body["prompt"])
	}
	if srv.body["targetRatio"] != 0.5 {
		t.Errorf("expected targetRatio 0.5, got %v", srv.body["targetRatio"])
	}
	if _, ok := srv.body["aggressive"]; ok {
		t.Error("unset flags must not be sent")
	}
}

func TestCompressCmd_Stdin(t *testing.T) {
	srv := newCompressServer(t)

	args := append([]string{"compress"}, sdkArgs(srv)...)
	if _, _, err := execute(t, "from stdin\n", append(args, "-")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv.body["prompt"] != "from stdin" {
		t.Errorf("expected stdin prompt, got %v", srv.body["prompt"])
	}
}

func TestChatCmd(t *testing.T) {
	srv := newCompressServer(t)

	args := append([]string{"chat", "--model", "m1", "--llm-api-key", "vendor-key", "--system", "be brief", "--max-tokens", "64"}, sdkArgs(srv)...)
	out, errOut, err := execute(t, "", append(args, "long question")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "answer\n" {
		t.Errorf("expected answer, got %q", out)
	}
	if !strings.Contains(errOut, "tokens: prompt=5 completion=3 total=8 compressed=5 savings=50.00%") {
		t.Errorf("expected usage line, got %q", errOut)
	}

	msgs := provider.gotMessages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem || msgs[0].Content != "be brief" {
		t.Errorf("unexpected system message %+v", msgs[0])
	}
	if msgs[1].Role != llm.RoleUser || msgs[1].Content != "short" {
		t.Errorf("expected compressed user message, got %+v", msgs[1])
	}
	cfg := provider.gotConfig
	if cfg.APIKey != "vendor-key" || cfg.Model != "m1" || cfg.MaxTokens == nil || *cfg.MaxTokens != 64 {
		t.Errorf("unexpected llm config %+v", cfg)
	}
}

func TestChatCmd_Stream(t *testing.T) {
	srv := newCompressServer(t)

	args := append([]string{"chat", "--stream", "--model", "m1", "--llm-api-key", "vendor-key"}, sdkArgs(srv)...)
	out, errOut, err := execute(t, "", append(args, "question")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "Hello\n" {
		t.Errorf("expected streamed reply, got %q", out)
	}
	if !strings.Contains(errOut, "total=7 compressed=5") {
		t.Errorf("expected merged usage line, got %q", errOut)
	}
}

func TestChatCmd_MissingModel(t *testing.T) {
	srv := newCompressServer(t)
	t.Setenv("LESSTOKENS_LLM_MODEL", "")

	args := append([]string{"chat", "--llm-api-key", "vendor-key"}, sdkArgs(srv)...)
	_, _, err := execute(t, "", append(args, "question")...)
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
	if srv.body != nil {
		t.Error("compression must not run when validation fails")
	}
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("LESSTOKENS_API_KEY", "")

	_, _, err := execute(t, "", "compress", "--provider", "openai", "prompt")
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeInvalidAPIKey {
		t.Errorf("expected INVALID_API_KEY, got %v", err)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "", "--log-level", "loud", "compress", "prompt")
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("expected log level error, got %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "lesstokens ") {
		t.Errorf("expected version line, got %q", out)
	}

	out, _, err = execute(t, "", "version", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil || info["version"] == nil {
		t.Errorf("expected version JSON, got %q", out)
	}
}

func TestReadPrompt(t *testing.T) {
	tests := []struct {
		arg, stdin, want string
	}{
		{"plain", "ignored", "plain"},
		{"-", "piped\r\n", "piped"},
		{"-", "multi\nline\n\n", "multi\nline"},
	}
	for _, tt := range tests {
		got, err := readPrompt(tt.arg, strings.NewReader(tt.stdin))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("readPrompt(%q): expected %q, got %q", tt.arg, tt.want, got)
		}
	}
}
