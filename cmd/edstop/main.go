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

// Command edstop sends one of the built-in communicator commands
// (STOP by default, or RESTART/LOG_ROTATE) to a running reactor
// connection.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/m2osw/eventdispatcher-sub003/cmd/internal/cliutil"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		network string
		command string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "edstop <address>",
		Short: "Send STOP (or another built-in communicator command) to a reactor connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			addr := args[0]

			dial, err := cliutil.DialAddr(network, addr)
			if err != nil {
				return err
			}

			msg := message.New(command)

			_, err = cliutil.SendLine(network, dial, msg, false, timeout)
			return err
		},
	}

	cmd.Flags().StringVar(&network, "network", "tcp", "transport: tcp, tcp4, tcp6 or unix")
	cmd.Flags().StringVar(&command, "command", "STOP", "built-in command to send: STOP, RESTART or LOG_ROTATE")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "dial timeout")

	if err := cmd.Execute(); err != nil {
		return cliutil.ReportFailure(err)
	}

	cliutil.ReportSuccess("%s sent", command)
	return 0
}
