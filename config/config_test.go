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

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/config"
)

const sampleYAML = `
log_level: info
listen:
  - name: control
    network: tcp
    address: 127.0.0.1:4040
permanent:
  - name: upstream
    network: tcp
    address: 127.0.0.1:4041
    secret_code: hunter2
secret_code: topsecret
`

var _ = Describe("LoadBytes", func() {
	It("parses a well-formed settings document", func() {
		s, err := config.LoadBytes([]byte(sampleYAML))
		Expect(err).ToNot(HaveOccurred())
		Expect(s.LogLevel).To(Equal("info"))
		Expect(s.Listen).To(HaveLen(1))
		Expect(s.Listen[0].Name).To(Equal("control"))
		Expect(s.Permanent).To(HaveLen(1))
		Expect(s.Permanent[0].SecretCode).To(Equal("hunter2"))
	})

	It("rejects a listen target with an unparsable address", func() {
		_, err := config.LoadBytes([]byte(`
listen:
  - name: broken
    network: tcp
    address: "::::"
`))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a permanent target missing a name", func() {
		_, err := config.LoadBytes([]byte(`
permanent:
  - network: tcp
    address: 127.0.0.1:4041
`))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("New", func() {
	It("loads and validates a settings file from disk", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "settings.yaml")
		Expect(os.WriteFile(path, []byte(sampleYAML), 0o600)).To(Succeed())

		l, err := config.New(path, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(l.Current().Listen[0].Address).To(Equal("127.0.0.1:4040"))
	})

	It("reports ErrorLoad for a missing file", func() {
		_, err := config.New(filepath.Join(GinkgoT().TempDir(), "missing.yaml"), nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Loader.Watch", func() {
	It("invokes OnReload when the settings file changes on disk", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "settings.yaml")
		Expect(os.WriteFile(path, []byte(sampleYAML), 0o600)).To(Succeed())

		l, err := config.New(path, nil)
		Expect(err).ToNot(HaveOccurred())

		reloaded := make(chan config.Settings, 1)
		l.OnReload = func(s config.Settings) { reloaded <- s }
		Expect(l.Watch()).To(Succeed())
		defer l.Close()

		updated := strings.Replace(sampleYAML, "log_level: info", "log_level: debug", 1)
		Expect(os.WriteFile(path, []byte(updated), 0o600)).To(Succeed())

		Eventually(reloaded, 5*time.Second, 50*time.Millisecond).Should(Receive())
	})
})
