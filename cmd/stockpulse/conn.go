// cmd/stockpulse/conn.go — shared client construction for subcommands.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/client"
)

// connFlags registers the flags every subcommand shares.
type connFlags struct {
	server  *string
	apiKey  *string
	session *string
}

func registerConnFlags(fs *flag.FlagSet) connFlags {
	return connFlags{
		server:  fs.String("server", "http://localhost:8080", "API server base URL"),
		apiKey:  fs.String("api-key", os.Getenv("STOCKPULSE_API_KEY"), "API key (defaults to $STOCKPULSE_API_KEY)"),
		session: fs.String("session", "", "anonymous session id (UUID; generated when empty)"),
	}
}

func (f connFlags) newClient() (*client.Client, error) {
	var opts []client.Option
	if *f.apiKey != "" {
		opts = append(opts, client.WithAPIKey(*f.apiKey))
	} else if *f.session != "" {
		id, err := uuid.Parse(*f.session)
		if err != nil {
			return nil, fmt.Errorf("invalid --session %q: %w", *f.session, err)
		}
		opts = append(opts, client.WithSessionID(id))
	}
	return client.New(*f.server, opts...), nil
}
