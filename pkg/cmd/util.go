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
	"path/filepath"
	"strings"

	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/isa"
	"github.com/consensys/go-mips/pkg/objfile"
	"github.com/consensys/go-mips/pkg/util/source"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint32 gets an expected uint32, or exits if an error arises.
func GetUint32(cmd *cobra.Command, flag string) uint32 {
	r, err := cmd.Flags().GetUint32(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Configure the log level, as common to all commands.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
}

// Determine the configuration to use.  This starts from the defaults, or the
// given configuration file, and then applies any flags given explicitly on the
// command line.
func getConfig(cmd *cobra.Command) config.Config {
	var (
		cfg   = config.Default()
		flags = cmd.Flags()
		err   error
	)
	//
	if filename := GetString(cmd, "config"); filename != "" {
		if cfg, err = config.Load(filename); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
	}
	//
	flags.Visit(func(f *pflag.Flag) {
		log.Debugf("flag --%s=%s", f.Name, f.Value)
	})
	//
	if flags.Changed("arch") {
		cfg.Arch = *flags.Lookup("arch").Value.(*isa.Version)
	}
	//
	if flags.Changed("endian") {
		cfg.Endian = *flags.Lookup("endian").Value.(*config.Endian)
	}
	//
	if flags.Changed("no-pseudo") {
		cfg.Pseudo = !GetFlag(cmd, "no-pseudo")
	}
	//
	if flags.Changed("werror") {
		cfg.Werror = GetFlag(cmd, "werror")
	}
	//
	if flags.Changed("text-base") {
		cfg.Link.TextBase = GetUint32(cmd, "text-base")
	}
	//
	if flags.Changed("data-base") {
		cfg.Link.DataBase = GetUint32(cmd, "data-base")
	}
	//
	if flags.Changed("entry") {
		cfg.Link.Entry = GetString(cmd, "entry")
	}
	//
	if err = cfg.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	log.Debugf("using configuration: arch=%s endian=%s pseudo=%t werror=%t", cfg.Arch, cfg.Endian, cfg.Pseudo,
		cfg.Werror)
	//
	return cfg
}

// Construct the logger through which diagnostics are reported.  The given
// source files are used to show the offending line of each diagnostic.
func getLogger(cmd *cobra.Command, files ...source.File) diag.Logger {
	if GetFlag(cmd, "json") {
		return diag.NewLogrusLogger(os.Stderr, diag.English, true)
	}
	//
	return diag.NewPrinter(os.Stderr, diag.English, files...)
}

// Read a given set of source files, or exit if any cannot be read.
func readSourceFiles(filenames []string) []source.File {
	files, err := source.ReadFiles(filenames...)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return files
}

// Read a given set of object files, or exit if any cannot be read (or is an
// executable).
func readObjectFiles(filenames []string) []*object.Module {
	modules := make([]*object.Module, len(filenames))
	//
	for i, filename := range filenames {
		file := readObjectFile(filename)
		//
		if file.IsExecutable() {
			fmt.Printf("%s: cannot link an executable file\n", filename)
			os.Exit(2)
		}
		//
		modules[i] = file.Module
	}
	//
	return modules
}

func readObjectFile(filename string) *objfile.File {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	file, err := objfile.Unmarshal(filepath.Base(filename), bytes)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return file
}

// Write a file, or exit if it cannot be written.
func writeFile(filename string, bytes []byte) {
	if err := os.WriteFile(filename, bytes, 0644); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	log.Debugf("wrote %d bytes to %s", len(bytes), filename)
}

// Replace the extension of a filename (if it has one).
func replaceExtension(filename string, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
}
