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
	"fmt"
	"os"

	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/linker"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/objfile"
	"github.com/consensys/go-mips/pkg/util"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link [flags] object_file(s)",
	Short: "link object files into an executable.",
	Long: `Link one or more object files into a single executable image.  Sections of the
	same name are concatenated in the order the files are given, and every reference
	between them is resolved.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		configureLogging(cmd)
		//
		var (
			cfg     = getConfig(cmd)
			output  = GetString(cmd, "output")
			modules = readObjectFiles(args)
		)
		//
		writeImage(output, linkModules(cmd, cfg, modules))
	},
}

// Link a set of modules, exiting if linking fails.
func linkModules(cmd *cobra.Command, cfg config.Config, modules []*object.Module) *linker.Result {
	var (
		stats   = util.NewPerfStats()
		logger  = getLogger(cmd)
		counter = diag.NewCounter(logger)
	)
	//
	result, ok := linker.Link(cfg, counter, modules...)
	//
	if !ok {
		fmt.Fprintf(os.Stderr, "linking failed with %d error(s)\n", counter.Errors())
		os.Exit(1)
	}
	//
	stats.Log("Linking")
	//
	return result
}

func writeImage(filename string, result *linker.Result) {
	bytes, err := objfile.MarshalImage(result)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	writeFile(filename, bytes)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(linkCmd)
	linkCmd.Flags().StringP("output", "o", "a.out", "specify output file.")
}
