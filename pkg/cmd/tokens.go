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

	"github.com/consensys/go-mips/pkg/asm/lexer"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] source_file",
	Short: "show the tokens of a source file.",
	Long:  `Tokenize a source file, printing each significant token along with its location and kind.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		configureLogging(cmd)
		//
		var (
			files     = readSourceFiles(args)
			tokenizer = lexer.NewTokenizer(getLogger(cmd, files...))
			all       = GetFlag(cmd, "all")
		)
		//
		for line := range tokenizer.TokenizeStream(files[0].Filename(), files[0].Lines()) {
			tokens := line.Significant()
			//
			if all {
				tokens = line.Tokens
			}
			//
			for _, token := range tokens {
				fmt.Printf("%d:%d\t%s\t%q\n", token.Location.Line, token.Location.Column+1, token.Kind, token.Text)
			}
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().BoolP("all", "a", false, "include whitespace and comments")
}
