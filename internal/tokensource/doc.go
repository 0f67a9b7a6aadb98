// Package tokensource supplies the Anthropic API key to upstream requests.
//
// Keys live in a Store: the process environment, a file, or the OS keyring. A store is
// exposed as an oauth2.TokenSource so the key is read once and reused until it is due
// for a reload, which picks up keys rotated with "auth login" without a restart.
//
// # Usage
//
//	store := tokensource.KeyringStore{Service: "claude3-provider", User: "api-key"}
//	ts := tokensource.NewTokenSource(store, 5*time.Minute)
//	transport, err := tokensource.NewTransport(ts, "https://api.anthropic.com", http.DefaultTransport)
//
// The Transport sets the x-api-key header only on requests to the Anthropic API host.
// Requests to other hosts, such as AWS Bedrock, pass through unchanged since they are
// signed with AWS credentials.
package tokensource
