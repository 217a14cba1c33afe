// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command pyintrospect attaches to a running CPython process by pid and
// periodically emits its call-stack samples, either as collapsed-stack
// text lines or as a mojo binary event stream. It is the command-line
// surface spec.md §6 names as outside the sampler core: argument parsing,
// the sampling loop's scheduling, and output formatting all live here,
// wired against the pyproc library and the mojoenc emitter.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-python-tools/pyintrospect/mojoenc"
	"github.com/go-python-tools/pyintrospect/pyproc"
)

type options struct {
	pid                 int
	intervalMicros      int64
	collapsed           bool
	excludeEmptyThreads bool
	suppressIdle        bool
	output              string
	binary              bool
	fullMetrics         bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pyintrospect",
		Short: "Sample a running CPython process's call stacks without pausing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := root.Flags()
	flags.IntVarP(&opts.pid, "pid", "p", 0, "process id to attach to (required)")
	flags.Int64VarP(&opts.intervalMicros, "interval", "i", 10000, "sampling interval, in microseconds")
	flags.BoolVarP(&opts.collapsed, "collapsed", "c", true, "has no effect: collapsed-stack text is written whenever --binary is not set")
	flags.BoolVar(&opts.excludeEmptyThreads, "exclude-empty-threads", false, "omit samples for threads with no decodable frames")
	flags.BoolVar(&opts.suppressIdle, "suppress-idle-samples", false, "omit samples for threads reporting idle")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	flags.BoolVar(&opts.binary, "binary", false, "emit the mojo binary event stream instead of collapsed text")
	flags.BoolVar(&opts.fullMetrics, "full-metrics", false, "has no effect: no wall-time or memory metric events are written")
	root.MarkFlagRequired("pid")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	if opts.pid <= 0 {
		return fmt.Errorf("pyintrospect: --pid must be positive")
	}

	p, err := pyproc.Attach(opts.pid)
	if err != nil {
		return fmt.Errorf("pyintrospect: attach pid %d: %w", opts.pid, err)
	}
	defer p.Detach()

	for _, w := range p.Warnings() {
		fmt.Fprintf(os.Stderr, "pyintrospect: warning: %s\n", w)
	}

	out := os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("pyintrospect: create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)
	defer bw.Flush()

	em, err := newEmitter(bw, opts)
	if err != nil {
		return err
	}

	interval := time.Duration(opts.intervalMicros) * time.Microsecond

	for {
		start := time.Now()

		err := pyproc.Sample(p, func(stack pyproc.ThreadStack) {
			em.emit(stack)
		})
		if err != nil {
			if kind, ok := pyproc.Kind(err); ok && kind == pyproc.KindTargetUnavailable {
				return fmt.Errorf("pyintrospect: target exited: %w", err)
			}
			fmt.Fprintf(os.Stderr, "pyintrospect: sample error: %v\n", err)
		}
		bw.Flush()

		elapsed := time.Since(start)
		if remaining := interval - elapsed; remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// emitter renders sampled stacks in one of the two output formats named by
// spec.md §6's command-line surface: the alternate collapsed-stack text
// format, or the mojo binary event stream.
type emitter struct {
	opts *options
	w    *bufio.Writer

	binary *mojoenc.Writer

	// seenFrames/seenStrings back the binary stream's *_REF forms: a
	// frame or string already emitted this run is referenced by key
	// instead of re-encoded.
	seenFrames  map[uint64]bool
	seenStrings map[string]uint64
	nextString  uint64
}

func newEmitter(w *bufio.Writer, opts *options) (*emitter, error) {
	em := &emitter{opts: opts}
	if opts.binary {
		mw, err := mojoenc.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("pyintrospect: mojo header: %w", err)
		}
		em.binary = mw
		em.seenFrames = make(map[uint64]bool)
		em.seenStrings = make(map[string]uint64)
	}
	em.w = w
	return em, nil
}

func (em *emitter) emit(stack pyproc.ThreadStack) {
	if em.opts.excludeEmptyThreads && len(stack.Frames) == 0 && !stack.Invalid {
		return
	}
	if em.opts.suppressIdle && len(stack.Frames) == 0 && !stack.Invalid {
		return
	}

	if em.binary != nil {
		em.emitBinary(stack)
		return
	}
	em.emitCollapsed(stack)
}

// emitCollapsed writes one collapsed-stack line per spec.md §6's glossary
// entry: a semicolon-joined list of frame labels (outermost first, the
// reverse of the walk order, which proceeds innermost-first) followed by a
// metric of 1.
func (em *emitter) emitCollapsed(stack pyproc.ThreadStack) {
	if stack.Invalid {
		fmt.Fprintf(em.w, "tid:%d;<invalid> 1\n", stack.TID)
		return
	}
	if len(stack.Frames) == 0 {
		fmt.Fprintf(em.w, "tid:%d;<idle> 1\n", stack.TID)
		return
	}

	labels := make([]string, len(stack.Frames))
	for i, f := range stack.Frames {
		labels[len(stack.Frames)-1-i] = frameLabel(f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "tid:%d;", stack.TID)
	b.WriteString(strings.Join(labels, ";"))
	b.WriteString(" 1\n")
	em.w.WriteString(b.String())
}

func frameLabel(f pyproc.Frame) string {
	return fmt.Sprintf("%s (%s:%d)", f.Scope, f.Filename, f.Line)
}

func (em *emitter) emitBinary(stack pyproc.ThreadStack) {
	em.binary.Stack(em.opts.pid, stack.TID)

	if stack.Invalid {
		em.binary.FrameInvalid()
		return
	}
	if len(stack.Frames) == 0 {
		em.binary.Idle()
		return
	}

	for _, f := range stack.Frames {
		if em.seenFrames[f.Key] {
			em.binary.FrameRef(f.Key)
			continue
		}
		em.seenFrames[f.Key] = true

		fnameKey := em.internString(f.Filename)
		scopeKey := em.internString(f.Scope)
		em.binary.Frame(f.Key, fnameKey, scopeKey, f.Line)
	}
}

// internString assigns each distinct string a stable reference key,
// emitting MOJO_STRING the first time it is seen and MOJO_STRING_REF on
// every later occurrence, per mojoenc's *_REF convention.
func (em *emitter) internString(s string) uint64 {
	if key, ok := em.seenStrings[s]; ok {
		em.binary.StringRef(key)
		return key
	}
	em.nextString++
	key := em.nextString
	em.seenStrings[s] = key
	em.binary.StringEvent(key, s)
	return key
}
