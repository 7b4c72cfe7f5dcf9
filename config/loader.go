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

// Package config loads the reactor's settings file and keeps watching
// it for live changes, the way a LOG_ROTATE signal prompts a process
// to reopen its logs without restarting.
package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/m2osw/eventdispatcher-sub003/logger"
)

// Loader owns a viper instance pointed at a single settings file plus
// an fsnotify watcher on that same path. Reload fires OnReload with
// the freshly validated Settings every time the file changes on disk.
type Loader struct {
	OnReload func(Settings)
	Log      logger.Logger

	path string
	v    *viper.Viper

	mu       sync.Mutex
	current  Settings
	watcher  *fsnotify.Watcher
	watching bool
}

// New loads path through viper, validates the result and returns a
// Loader ready to serve Current and, once Watch is called, live
// reloads.
func New(path string, log logger.Logger) (*Loader, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, ErrorLoad.Error(err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, ErrorLoad.Error(err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &Loader{
		Log:     log,
		path:    path,
		v:       v,
		current: s,
	}, nil
}

// LoadBytes unmarshals raw YAML directly with yaml.v3, bypassing
// viper entirely; unit tests and embedded callers that already hold
// the settings in memory use this instead of New.
func LoadBytes(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, ErrorLoad.Error(err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Current returns the most recently loaded, validated Settings.
func (l *Loader) Current() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Watch starts an fsnotify watch on the settings file's directory and
// re-reads the file on every Write/Create event, the same signal a
// text editor's atomic save produces. A settings file that fails to
// reload (bad YAML, failed Validate) is logged and the previous
// Settings are kept in place.
func (l *Loader) Watch() error {
	l.mu.Lock()
	if l.watching {
		l.mu.Unlock()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		l.mu.Unlock()
		return ErrorWatch.Error(err)
	}

	if err := w.Add(filepath.Dir(l.path)); err != nil {
		w.Close()
		l.mu.Unlock()
		return ErrorWatch.Error(err)
	}

	l.watcher = w
	l.watching = true
	l.mu.Unlock()

	go l.watchLoop(w)
	return nil
}

func (l *Loader) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Name != l.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			l.reload()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if l.Log != nil {
				l.Log.Warning("settings watch error", logger.Fields{"error": err.Error()})
			}
		}
	}
}

func (l *Loader) reload() {
	if err := l.v.ReadInConfig(); err != nil {
		if l.Log != nil {
			l.Log.Warning("settings reload failed, keeping prior settings", logger.Fields{"error": err.Error()})
		}
		return
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		if l.Log != nil {
			l.Log.Warning("settings reload failed, keeping prior settings", logger.Fields{"error": err.Error()})
		}
		return
	}
	if err := s.Validate(); err != nil {
		if l.Log != nil {
			l.Log.Warning("settings reload failed, keeping prior settings", logger.Fields{"error": err.Error()})
		}
		return
	}

	l.mu.Lock()
	l.current = s
	l.mu.Unlock()

	if l.OnReload != nil {
		l.OnReload(s)
	}
}

// Close stops the watcher, if one was started.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.watching {
		return nil
	}
	l.watching = false
	return l.watcher.Close()
}
