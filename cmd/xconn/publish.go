package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCmd() *cobra.Command {
	var (
		argsJSON string
		ack      bool
	)

	cmd := &cobra.Command{
		Use:   "publish <topic>",
		Short: "Publish an event to a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]

			var positional []any
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &positional); err != nil {
					return fmt.Errorf("parsing --args as a JSON array: %w", err)
				}
			}

			session, err := connectSession()
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer session.Leave(cmd.Context())

			req := session.Publish(topic).Acknowledge(ack)
			for _, a := range positional {
				req.Arg(a)
			}

			if err := req.Do(cmd.Context()); err != nil {
				return fmt.Errorf("publish %s: %w", topic, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", `positional arguments as a JSON array, e.g. --args '[1,2]'`)
	cmd.Flags().BoolVar(&ack, "ack", false, "wait for router acknowledgement")
	return cmd
}
