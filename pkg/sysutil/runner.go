// Package sysutil invokes external system utilities and reports their output.
//
// A failed invocation is not an error condition here: callers get ok=false and
// treat the data as unavailable for this refresh cycle. Nothing is retried,
// so one slow or broken utility cannot stall a refresh more than once.
package sysutil

import (
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner runs one external utility synchronously and returns its combined
// stdout/stderr. ok is false on spawn failure or non-zero exit.
type Runner interface {
	Run(path string, args ...string) (out string, ok bool)
}

// commandTimeout bounds a single utility invocation. The privileged sampler
// takes a bit over its 1s sampling window; everything else is much faster.
const commandTimeout = 10 * time.Second

// ExecRunner is the real Runner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner that spawns real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the utility and captures combined output. It must never
// escalate privilege: callers decide whether a privileged utility may be
// attempted at all before calling Run.
func (r *ExecRunner) Run(path string, args ...string) (string, bool) {
	logrus.WithFields(logrus.Fields{
		"path": path,
		"args": args,
	}).Trace("running system utility")

	cmd := exec.Command(path, args...)
	done := make(chan struct{})
	var out []byte
	var err error
	go func() {
		out, err = cmd.CombinedOutput()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(commandTimeout):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		logrus.WithField("path", path).Warn("system utility timed out")
		return "", false
	}

	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path": path,
			"err":  err,
		}).Debug("system utility failed")
		return "", false
	}
	return string(out), true
}

// Privileged reports whether the current process has root privileges. The
// privileged sampler is skipped entirely, not attempted-and-caught, when this
// returns false.
func Privileged() bool {
	return os.Geteuid() == 0
}

// FakeRunner is a test double that serves canned outputs keyed by the
// command line and records every invocation.
type FakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   []string
}

// NewFakeRunner returns a FakeRunner with prefilled outputs. Keys are the
// utility path joined with its arguments by spaces.
func NewFakeRunner(outputs map[string]string) *FakeRunner {
	return &FakeRunner{outputs: outputs}
}

// Run serves the canned output for the command, ok=false when none exists.
func (r *FakeRunner) Run(path string, args ...string) (string, bool) {
	key := strings.Join(append([]string{path}, args...), " ")
	r.mu.Lock()
	r.calls = append(r.calls, key)
	r.mu.Unlock()
	out, ok := r.outputs[key]
	return out, ok
}

// Calls returns every command line seen so far.
func (r *FakeRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// CallCount returns how many recorded invocations contain substr.
func (r *FakeRunner) CallCount(substr string) int {
	n := 0
	for _, c := range r.Calls() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}
