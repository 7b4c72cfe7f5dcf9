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

package config

import (
	"fmt"

	"github.com/m2osw/eventdispatcher-sub003/address"
)

// ListenTarget is one reactor-wide listen socket.
type ListenTarget struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Network string `yaml:"network" mapstructure:"network"`
	Address string `yaml:"address" mapstructure:"address"`
}

// PermanentTarget is one reconnecting client the reactor dials on
// startup, per §4.H.
type PermanentTarget struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Network    string `yaml:"network" mapstructure:"network"`
	Address    string `yaml:"address" mapstructure:"address"`
	SecretCode string `yaml:"secret_code,omitempty" mapstructure:"secret_code"`
}

// TLSMaterial names the certificate/key/CA paths a listener or
// permanent connection uses when it upgrades to a secure stream; the
// reactor core only needs the paths, the plaintext-vs-secure
// distinction itself is out of scope (see spec's Non-goals).
type TLSMaterial struct {
	CertFile string `yaml:"cert_file,omitempty" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file,omitempty" mapstructure:"key_file"`
	CAFile   string `yaml:"ca_file,omitempty" mapstructure:"ca_file"`
}

// Settings is the reactor-wide and per-service configuration loaded
// by Loader (§10.3).
type Settings struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	Listen    []ListenTarget    `yaml:"listen" mapstructure:"listen"`
	Permanent []PermanentTarget `yaml:"permanent" mapstructure:"permanent"`

	SecretCode string      `yaml:"secret_code,omitempty" mapstructure:"secret_code"`
	TLS        TLSMaterial `yaml:"tls,omitempty" mapstructure:"tls"`
}

// Validate checks every listen and permanent target address against
// the address package's own parser, so a malformed settings file is
// rejected before any connection is ever registered with the reactor.
func (s Settings) Validate() error {
	for _, l := range s.Listen {
		if l.Name == "" {
			return ErrorValidation.Error(fmt.Errorf("listen target missing a name"))
		}
		if _, err := address.Parse(l.Address, "", 0); err != nil {
			return ErrorValidation.Error(fmt.Errorf("listen target %q: %w", l.Name, err))
		}
	}

	for _, p := range s.Permanent {
		if p.Name == "" {
			return ErrorValidation.Error(fmt.Errorf("permanent target missing a name"))
		}
		if _, err := address.Parse(p.Address, "", 0); err != nil {
			return ErrorValidation.Error(fmt.Errorf("permanent target %q: %w", p.Name, err))
		}
	}

	return nil
}
