// Package llm defines the vendor-neutral chat model used by the SDK: the
// message, configuration, usage and response types, the Provider contract
// every vendor adapter implements, and the provider registry.
//
// Adapters live in sub-packages and register themselves from init, the way
// database/sql drivers do:
//
//	import (
//	    "github.com/kbukum/lesstokens/llm"
//	    _ "github.com/kbukum/lesstokens/llm/openai"
//	)
//
//	p, err := llm.New("openai", apiKey, "")
//	resp, err := p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
//	    llm.Config{APIKey: apiKey, Model: "gpt-4o-mini"})
//
// Streaming is pull based. A Stream yields content deltas with Done=false
// followed by exactly one Done=true chunk carrying the usage the vendor
// reported:
//
//	s, err := p.ChatStream(ctx, msgs, cfg)
//	defer s.Close()
//	for {
//	    chunk, ok, err := s.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    fmt.Print(chunk.Content)
//	}
package llm
