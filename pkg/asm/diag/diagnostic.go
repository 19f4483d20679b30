// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package diag

import (
	"fmt"

	"github.com/consensys/go-mips/pkg/util/source"
)

// Severity indicates how serious a given diagnostic is.  Only errors cause an
// assembly (or link) to be considered as failed.
type Severity uint8

const (
	// MESSAGE is purely informative.
	MESSAGE Severity = iota
	// WARNING indicates something suspicious which does not prevent output.
	WARNING
	// ERROR indicates the output cannot be trusted.
	ERROR
)

func (s Severity) String() string {
	switch s {
	case MESSAGE:
		return "message"
	case WARNING:
		return "warning"
	case ERROR:
		return "error"
	}
	//
	return fmt.Sprintf("severity(%d)", uint8(s))
}

// Code uniquely identifies a diagnostic by the component raising it (the
// provider), along with a number unique within that provider.
type Code struct {
	Provider string
	Id       uint16
}

func (c Code) String() string {
	return fmt.Sprintf("%s%04d", c.Provider, c.Id)
}

// Kind describes a class of diagnostic.  The key selects a message from a
// catalog; the core never formats user-facing text itself.
type Kind struct {
	Code     Code
	Key      string
	Severity Severity
}

// Diagnostic is a single reported problem, associated with a location and the
// text of zero or more offending tokens.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Key      string
	Location source.Location
	// Text of the offending token(s), if any.
	Tokens []string
	// Arguments to be substituted into the message.
	Args []any
}

// New constructs a diagnostic of a given kind.
func New(kind Kind, loc source.Location, tokens []string, args ...any) Diagnostic {
	return Diagnostic{kind.Severity, kind.Code, kind.Key, loc, tokens, args}
}

// Is determines whether this diagnostic is of the given kind.
func (d Diagnostic) Is(kind Kind) bool {
	return d.Code == kind.Code
}

// Logger is the collaborator through which all diagnostics are reported.
type Logger interface {
	Log(Diagnostic)
}

// Report is a convenience for constructing and logging a diagnostic in one go.
func Report(logger Logger, kind Kind, loc source.Location, tokens []string, args ...any) {
	logger.Log(New(kind, loc, tokens, args...))
}

// ============================================================================
// Collector
// ============================================================================

// Collector is a logger which simply records everything it is given, in order.
// A collector is not safe for concurrent use; when modules are assembled in
// parallel, each gets its own collector and these are replayed afterwards.
type Collector struct {
	diagnostics []Diagnostic
	errors      uint
	warnings    uint
}

// NewCollector constructs an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Log implementation for the Logger interface.
func (p *Collector) Log(d Diagnostic) {
	p.diagnostics = append(p.diagnostics, d)
	//
	switch d.Severity {
	case ERROR:
		p.errors++
	case WARNING:
		p.warnings++
	}
}

// Diagnostics returns everything collected so far.
func (p *Collector) Diagnostics() []Diagnostic {
	return p.diagnostics
}

// Errors returns the number of error diagnostics collected.
func (p *Collector) Errors() uint {
	return p.errors
}

// Warnings returns the number of warning diagnostics collected.
func (p *Collector) Warnings() uint {
	return p.warnings
}

// HasErrors checks whether any error has been collected.
func (p *Collector) HasErrors() bool {
	return p.errors > 0
}

// Count returns the number of collected diagnostics of the given kind.
func (p *Collector) Count(kind Kind) uint {
	var n uint
	//
	for _, d := range p.diagnostics {
		if d.Is(kind) {
			n++
		}
	}
	//
	return n
}

// Replay forwards everything collected to another logger, in order.
func (p *Collector) Replay(logger Logger) {
	for _, d := range p.diagnostics {
		logger.Log(d)
	}
}

// ============================================================================
// Filters
// ============================================================================

// Counter wraps a logger, counting errors as they pass through.
type Counter struct {
	logger Logger
	errors uint
}

// NewCounter constructs a counting wrapper around a given logger.
func NewCounter(logger Logger) *Counter {
	return &Counter{logger, 0}
}

// Log implementation for the Logger interface.
func (p *Counter) Log(d Diagnostic) {
	if d.Severity == ERROR {
		p.errors++
	}
	//
	p.logger.Log(d)
}

// Errors returns the number of errors seen so far.
func (p *Counter) Errors() uint {
	return p.errors
}

// Promote wraps a logger such that warnings are reported as errors.
func Promote(logger Logger) Logger {
	return promoter{logger}
}

type promoter struct {
	logger Logger
}

func (p promoter) Log(d Diagnostic) {
	if d.Severity == WARNING {
		d.Severity = ERROR
	}
	//
	p.logger.Log(d)
}

// Discard is a logger which ignores everything.
var Discard Logger = discard{}

type discard struct{}

func (discard) Log(Diagnostic) {}
