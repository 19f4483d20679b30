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
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/consensys/go-mips/pkg/asm/assembler"
	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/objfile"
	"github.com/consensys/go-mips/pkg/util/source"
	"github.com/spf13/cobra"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble [flags] source_file(s)",
	Short: "assemble source files into object files.",
	Long: `Assemble one or more source files into object files.  Files are assembled in
	parallel, and every problem found in every file is reported.  Unless an output is
	given, each object file is named after its source file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		configureLogging(cmd)
		//
		var (
			cfg    = getConfig(cmd)
			output = GetString(cmd, "output")
			files  = readSourceFiles(args)
		)
		//
		if output != "" && len(files) != 1 {
			fmt.Println("output can only be given for a single source file")
			os.Exit(2)
		}
		//
		modules := assembleFiles(cmd, cfg, files)
		//
		for i, module := range modules {
			filename := output
			//
			if filename == "" {
				filename = replaceExtension(files[i].Filename(), ".o")
			}
			//
			bytes, err := objfile.Marshal(module)
			if err != nil {
				fmt.Println(err)
				os.Exit(2)
			}
			//
			writeFile(filename, bytes)
		}
	},
}

// Assemble a set of source files, exiting if any fails to assemble.
func assembleFiles(cmd *cobra.Command, cfg config.Config, files []source.File) []*object.Module {
	var (
		logger   = getLogger(cmd, files...)
		counter  = diag.NewCounter(logger)
		ctx      = context.Background()
		failures int
	)
	//
	modules, err := assembler.AssembleAll(ctx, cfg, files, counter)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	for _, m := range modules {
		if m.Failed() {
			failures++
		}
	}
	//
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d error(s) in %d file(s)\n", counter.Errors(), failures)
		os.Exit(1)
	}
	//
	return modules
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(assembleCmd)
	assembleCmd.Flags().StringP("output", "o", "", "specify output file.")
}
