package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lesstokens/compression"
	"github.com/kbukum/lesstokens/config"
	apperrors "github.com/kbukum/lesstokens/errors"
	"github.com/kbukum/lesstokens/llm"
	"github.com/kbukum/lesstokens/logger"
	"github.com/kbukum/lesstokens/sdk"
	"github.com/kbukum/lesstokens/validation"
	"github.com/kbukum/lesstokens/version"
)

// CompressRequest is the body of POST /v1/compress.
type CompressRequest struct {
	Prompt  string               `json:"prompt" binding:"required"`
	Options *compression.Options `json:"options,omitempty"`
}

// ChatRequest is the body of POST /v1/chat and POST /v1/chat/stream.
type ChatRequest struct {
	Prompt   string               `json:"prompt" binding:"required"`
	LLM      llm.Config           `json:"llm"`
	Options  *compression.Options `json:"options,omitempty"`
	Role     string               `json:"role,omitempty"`
	Content  *string              `json:"content,omitempty"`
	Messages []llm.Message        `json:"messages,omitempty"`
}

type handlers struct {
	svc      Service
	defaults config.LLMConfig
	log      *logger.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) version(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetVersionInfo())
}

func (h *handlers) compress(c *gin.Context) {
	var req CompressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validation.FromValidatorError(err))
		return
	}

	res, err := h.svc.CompressPrompt(c.Request.Context(), req.Prompt, req.Options)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) chat(c *gin.Context) {
	opts, ok := h.bindChat(c)
	if !ok {
		return
	}

	resp, err := h.svc.ProcessPrompt(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) chatStream(c *gin.Context) {
	opts, ok := h.bindChat(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stream, err := h.svc.ProcessPromptStream(ctx, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	defer func() { _ = stream.Close() }()

	log := h.log.WithContext(ctx)
	sw := newEventWriter(c.Writer, log)
	sw.start()

	for {
		chunk, more, err := stream.Next(ctx)
		if err != nil {
			log.Warn("stream failed", logger.ErrorFields("chat_stream", err))
			_, body := apperrors.ResponseFor(err)
			sw.send(eventError, body)
			return
		}
		if !more {
			return
		}
		if !sw.send("", chunk) {
			return
		}
	}
}

// bindChat decodes a chat request and fills unset vendor settings from the
// gateway defaults. On failure the error response is already written.
func (h *handlers) bindChat(c *gin.Context) (sdk.ProcessOptions, bool) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validation.FromValidatorError(err))
		return sdk.ProcessOptions{}, false
	}

	opts := sdk.ProcessOptions{
		Prompt:      req.Prompt,
		LLMConfig:   h.withDefaults(req.LLM),
		Compression: req.Options,
		MessageRole: req.Role,
		Messages:    req.Messages,
	}
	if req.Content != nil {
		opts.MessageContent = sdk.Content(*req.Content)
	}
	return opts, true
}

func (h *handlers) withDefaults(cfg llm.Config) llm.Config {
	if cfg.APIKey == "" {
		cfg.APIKey = h.defaults.APIKey
	}
	if cfg.Model == "" {
		cfg.Model = h.defaults.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = h.defaults.BaseURL
	}
	if cfg.Temperature == nil {
		cfg.Temperature = h.defaults.Temperature
	}
	if cfg.MaxTokens == nil {
		cfg.MaxTokens = h.defaults.MaxTokens
	}
	return cfg
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.ResponseFor(err))
}
