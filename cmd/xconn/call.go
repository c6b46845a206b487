package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "call <procedure>",
		Short: "Call a remote procedure and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			procedure := args[0]

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

			req := session.Call(procedure)
			for _, a := range positional {
				req.Arg(a)
			}

			result, err := req.Do(cmd.Context())
			if err != nil {
				return fmt.Errorf("call %s: %w", procedure, err)
			}

			out, err := json.Marshal(result.Args)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", `positional arguments as a JSON array, e.g. --args '[1,2]'`)
	return cmd
}
