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
package assembler

import (
	"context"
	"iter"
	"runtime"

	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/insn"
	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/isa"
	"github.com/consensys/go-mips/pkg/util"
	"github.com/consensys/go-mips/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Assembler turns assembly source into object modules.  An assembler holds no
// mutable state and, hence, can be used to assemble several modules at once.
type Assembler struct {
	config  config.Config
	encoder *insn.Encoder
}

// NewAssembler constructs an assembler for a given configuration.  The
// instruction table for the configured architecture is built once here.
func NewAssembler(cfg config.Config) *Assembler {
	table := isa.NewTable(cfg.Arch)
	//
	return &Assembler{cfg, insn.NewEncoder(table, cfg.Pseudo)}
}

// Config returns the configuration of this assembler.
func (p *Assembler) Config() config.Config {
	return p.config
}

// Assemble a given source file into a module named after that file.
func (p *Assembler) Assemble(file *source.File, logger diag.Logger) *object.Module {
	return p.AssembleLines(file.Filename(), file.Lines(), logger)
}

// AssembleLines assembles a stream of source lines into a module.  Every
// problem found is reported to the given logger, and assembly always runs to
// completion.  The resulting module is finalized, and marked as failed if any
// error was reported.
func (p *Assembler) AssembleLines(name string, lines iter.Seq[string], logger diag.Logger) *object.Module {
	counter := diag.NewCounter(logger)
	reporter := diag.Logger(counter)
	// Promote before counting, so promoted warnings fail the module.
	if p.config.Werror {
		reporter = diag.Promote(counter)
	}
	//
	var (
		module    = object.NewModule(name, p.config.Endian.ByteOrder())
		tokenizer = lexer.NewTokenizer(reporter)
		asm       = &assembly{NewEnvironment(module), p.encoder, reporter}
	)
	//
	for line := range tokenizer.TokenizeStream(name, lines) {
		if stmt, ok := NewParser(line, reporter).Parse(); ok {
			asm.assemble(stmt)
		}
	}
	//
	if counter.Errors() > 0 {
		module.MarkFailed()
	}
	//
	module.Finalize()
	//
	log.Debugf("assembled %s (%d sections, %d symbols, %d references, %d errors)", name,
		len(module.Sections()), len(module.Symbols()), len(module.References()), counter.Errors())
	//
	return module
}

// AssembleAll assembles a given set of source files in parallel, producing one
// module per file (in the same order).  Each module is assembled with its own
// collector, whose diagnostics are replayed to the given logger in file order
// once everything is done.  An error is returned only if the context is
// cancelled.
func AssembleAll(ctx context.Context, cfg config.Config, files []source.File,
	logger diag.Logger) ([]*object.Module, error) {
	//
	type outcome struct {
		module      *object.Module
		diagnostics *diag.Collector
	}
	//
	asm := NewAssembler(cfg)
	stats := util.NewPerfStats()
	//
	outcomes, err := util.ParMap(ctx, files, runtime.NumCPU(), func(ctx context.Context, file source.File) (outcome, error) {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}
		//
		collector := diag.NewCollector()
		module := asm.Assemble(&file, collector)
		//
		return outcome{module, collector}, nil
	})
	//
	if err != nil {
		return nil, err
	}
	//
	modules := make([]*object.Module, len(outcomes))
	//
	for i, o := range outcomes {
		o.diagnostics.Replay(logger)
		modules[i] = o.module
	}
	//
	stats.Log("Assembling")
	//
	return modules, nil
}

// ============================================================================
// Assembly of a single module
// ============================================================================

// assembly holds the state of a single module being assembled.
type assembly struct {
	env     *Environment
	encoder *insn.Encoder
	logger  diag.Logger
}

func (p *assembly) module() *object.Module {
	return p.env.module
}

// Assemble a single statement.
func (p *assembly) assemble(stmt Statement) {
	// Words and instructions are aligned automatically, and any labels on the
	// same line refer to the aligned location.
	if n := p.alignmentOf(stmt); n > 0 {
		p.module().Align(p.env.Section(), n)
	}
	//
	for _, label := range stmt.Labels {
		p.defineLabel(label)
	}
	//
	switch {
	case stmt.IsDirective():
		p.directive(stmt)
	case stmt.IsInstruction():
		p.instruction(stmt)
	}
}

func (p *assembly) alignmentOf(stmt Statement) uint {
	switch {
	case stmt.IsInstruction():
		return 2
	case stmt.Name() == ".word":
		return 2
	case stmt.Name() == ".half":
		return 1
	}
	//
	return 0
}

func (p *assembly) defineLabel(label lexer.Token) {
	if !p.checkSymbolName(label) {
		return
	}
	//
	if !p.module().TryDefineOrUpdateSymbol(label.Text, object.LABEL, p.env.Location(), label.Location) {
		diag.Report(p.logger, diag.DuplicateSymbol, label.Location, []string{label.Text}, label.Text)
	}
}

// Assemble an instruction statement.  An instruction whose shape is invalid
// still occupies its expected size (when known), so that subsequent labels are
// unaffected.
func (p *assembly) instruction(stmt Statement) {
	var (
		module  = p.module()
		section = p.env.Section()
	)
	//
	if !p.env.Flags().Has(object.EXEC) {
		diag.Report(p.logger, diag.NotExecutable, stmt.Head.Location, []string{stmt.Head.Text}, section)
	}
	//
	parsed, ok := p.encoder.Parse(*stmt.Head, stmt.Args, p.logger)
	//
	if !ok {
		if parsed.Real != nil || parsed.Pseudo != nil {
			module.Reserve(section, parsed.Size())
		}
		//
		return
	}
	//
	p.checkReservedRegister(parsed)
	//
	words, ok := p.encoder.Encode(p.env, parsed, p.logger)
	//
	for _, word := range words {
		if ok && word.Reference.HasValue() {
			module.TrackReference(word.Reference.Unwrap())
		}
		//
		module.AppendWord(section, word.Value)
	}
}

// Explicit use of the assembler temporary is suspicious, unless ".set noat"
// is in force.
func (p *assembly) checkReservedRegister(parsed insn.Parsed) {
	if !p.env.reserveAt {
		return
	}
	//
	for _, operand := range parsed.Operands {
		if operand.Kind != insn.EXPRESSION_OPERAND && operand.Register == isa.AT {
			diag.Report(p.logger, diag.ReservedRegister, operand.Location, []string{operand.Text})
		}
	}
}
