// Package httpclient is the small JSON-over-HTTP transport used to talk to
// the compression service. It applies API-key authentication, bounds every
// call with a timeout and classifies failures into typed errors so callers
// can tell a timeout from a connection failure from an HTTP error status.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://lesstokens.hive-hub.ai",
//	    Timeout: 30 * time.Second,
//	    Auth:    httpclient.APIKeyAuth(key),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/api/compress",
//	    Body:   payload,
//	})
package httpclient
