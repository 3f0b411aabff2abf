/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows an animated progress indicator on stderr while a
// long-running operation is in flight. When colors are disabled the
// spinner stays silent until one of the Stop variants prints the result.
type Spinner struct {
	message string
	mu      sync.Mutex
	done    chan struct{}
	running bool
}

// NewSpinner creates a spinner with the given status message.
func NewSpinner(message string) *Spinner {
	return &Spinner{message: message}
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	if !colorsEnabled {
		return
	}
	go func(done chan struct{}) {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		frame := 0
		for {
			select {
			case <-done:
				fmt.Fprintf(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\r%s %s", Info(spinnerFrames[frame]), s.message)
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}(s.done)
}

func (s *Spinner) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)
	if colorsEnabled {
		// Give the animation goroutine a beat to clear the line.
		time.Sleep(10 * time.Millisecond)
	}
}

// StopWithSuccess halts the animation and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.stop()
	fmt.Fprintf(os.Stderr, "%s %s\n", SuccessIcon(), message)
}

// StopWithError halts the animation and prints a failure line.
func (s *Spinner) StopWithError(message string) {
	s.stop()
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorIcon(), message)
}
