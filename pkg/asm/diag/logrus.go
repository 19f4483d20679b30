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
	"io"

	log "github.com/sirupsen/logrus"
)

// LogrusLogger reports diagnostics as structured log entries, which is useful
// when the toolchain is driven by other tools (e.g. an editor).
type LogrusLogger struct {
	logger  *log.Logger
	catalog Catalog
}

// NewLogrusLogger constructs a structured diagnostic logger writing to a given
// output, either as JSON or as logrus' usual text format.
func NewLogrusLogger(out io.Writer, catalog Catalog, json bool) *LogrusLogger {
	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(log.InfoLevel)
	//
	if json {
		logger.SetFormatter(&log.JSONFormatter{DisableTimestamp: true})
	} else {
		logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	}
	//
	return &LogrusLogger{logger, catalog}
}

// Log implementation for the Logger interface.
func (p *LogrusLogger) Log(d Diagnostic) {
	fields := log.Fields{"code": d.Code.String(), "key": d.Key}
	//
	if d.Location.IsValid() {
		fields["file"] = d.Location.File
		fields["line"] = d.Location.Line
		fields["column"] = d.Location.Column + 1
	}
	//
	if len(d.Tokens) > 0 {
		fields["tokens"] = d.Tokens
	}
	//
	entry := p.logger.WithFields(fields)
	msg := p.catalog.Format(d)
	//
	switch d.Severity {
	case ERROR:
		entry.Error(msg)
	case WARNING:
		entry.Warn(msg)
	default:
		entry.Info(msg)
	}
}
