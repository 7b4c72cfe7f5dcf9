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

// Command edcert dials a TLS listener and prints the peer certificate
// chain it presents, without joining the reactor core; certificate
// inspection stays a standalone collaborator the reactor never links
// against.
package main

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/m2osw/eventdispatcher-sub003/cmd/internal/cliutil"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		insecure bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "edcert <host:port>",
		Short: "Dial a TLS endpoint and print the certificate chain it presents",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dialer := &net.Dialer{Timeout: timeout}

			conn, err := tls.DialWithDialer(dialer, "tcp", args[0], &tls.Config{
				InsecureSkipVerify: insecure, //nolint:gosec // explicit opt-in via --insecure, for inspecting self-signed test certs
			})
			if err != nil {
				return err
			}
			defer conn.Close()

			state := conn.ConnectionState()
			for i, cert := range state.PeerCertificates {
				fmt.Printf("[%d] subject=%s issuer=%s not_before=%s not_after=%s dns_names=%v\n",
					i, cert.Subject, cert.Issuer,
					cert.NotBefore.Format(time.RFC3339), cert.NotAfter.Format(time.RFC3339),
					cert.DNSNames)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip certificate verification (self-signed test certs)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "dial timeout")

	if err := cmd.Execute(); err != nil {
		return cliutil.ReportFailure(err)
	}

	cliutil.ReportSuccess("certificate chain printed")
	return 0
}
