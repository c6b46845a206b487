// Command xconn is a small command-line smoke client for calling
// procedures and publishing events against a rawsocket WAMP router.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	peerURL  string
	realm    string
	authID   string
	ticket   string
	serializerName string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xconn",
		Short: "xconn is a minimal WAMP client",
		Long:  `xconn dials a rawsocket WAMP router, joins a realm, and runs a single call or publish.`,
	}

	cmd.PersistentFlags().StringVar(&peerURL, "url", "tcp://127.0.0.1:8080", "rawsocket peer url (tcp://host:port or unix:///path)")
	cmd.PersistentFlags().StringVar(&realm, "realm", "realm1", "realm to join")
	cmd.PersistentFlags().StringVar(&authID, "authid", "anonymous", "authentication id")
	cmd.PersistentFlags().StringVar(&ticket, "ticket", "", "ticket secret; anonymous auth is used when empty")
	cmd.PersistentFlags().StringVar(&serializerName, "serializer", "json", "wire serializer: json, msgpack, or cbor")

	cmd.AddCommand(newCallCmd(), newPublishCmd())
	return cmd
}
