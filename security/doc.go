// Package security holds TLS settings for both ends of the system: the
// client connection to the compression service and TLS termination in the
// gateway.
//
//	client := security.TLSConfig{CAFile: "/etc/lesstokens/ca.pem"}
//	tlsConfig, err := client.Build() // nil when nothing is set
//
//	server := security.ServerTLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}
//	tlsConfig, err = server.Build()
package security
