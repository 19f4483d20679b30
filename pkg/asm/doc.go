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
// Package asm is the root of the assembler toolchain.  Source files are broken
// into tokens (lexer), parsed into statements and encoded (assembler, insn,
// expr) into relocatable modules (object), which are finally combined into an
// executable image (linker).  The end-to-end tests for the toolchain as a whole
// live here, driven by the sample programs under testdata/asm.
package asm
