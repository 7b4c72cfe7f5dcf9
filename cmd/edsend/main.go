/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command edsend sends a single wire-format message to a running
// reactor and, optionally, waits for one reply line back.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/spf13/cobra"

	"github.com/m2osw/eventdispatcher-sub003/cmd/internal/cliutil"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		network  string
		params   []string
		service  string
		reply    bool
		timeout  time.Duration
		gotReply bool
	)

	cmd := &cobra.Command{
		Use:   "edsend <address> <command>",
		Short: "Send one message to a reactor connection and optionally wait for a reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			addr, command := args[0], args[1]

			dial, err := cliutil.DialAddr(network, addr)
			if err != nil {
				return err
			}

			msg := message.New(command)
			msg.Service = service
			if err := cliutil.ParseParams(&msg, params); err != nil {
				return err
			}

			if reply {
				id, err := uuid.GenerateUUID()
				if err != nil {
					// best-effort: a missing correlation id never
					// blocks the send, it just leaves the reply
					// unmatched on the receiving end.
					id = ""
				}
				if id != "" && !msg.Has("correlation_id") {
					msg.Set("correlation_id", id)
				}
			}

			got, err := cliutil.SendLine(network, dial, msg, reply, timeout)
			if err != nil {
				return err
			}

			if reply {
				gotReply = true
				fmt.Println(message.Encode(got))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&network, "network", "tcp", "transport: tcp, tcp4, tcp6 or unix")
	cmd.Flags().StringVar(&service, "service", "", "destination service name, if the connection multiplexes several")
	cmd.Flags().StringArrayVar(&params, "param", nil, "message parameter as name=value, repeatable")
	cmd.Flags().BoolVar(&reply, "reply", false, "wait for and print one reply line")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "dial and round-trip timeout")

	if err := cmd.Execute(); err != nil {
		return cliutil.ReportFailure(err)
	}

	if !gotReply {
		cliutil.ReportSuccess("message sent")
	}
	return 0
}
