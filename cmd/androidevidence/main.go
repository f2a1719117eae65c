// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package main implements the androidevidence command line tool with
// subcommands to extract and review forensic records from Android SQLite
// databases.
//     extract   Extract canonical records from Android SQLite databases
//     report    Summarize an exported extraction run
//     timeline  Print all dated records in chronological order
//
// Usage
//
// Extract records from pulled databases
//     androidevidence extract -o records.json /evidence/device1/*.db
// Review a run
//     androidevidence report records.json
// Build a chronological view
//     androidevidence timeline /evidence/device1/*.db
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidevidence/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "androidevidence",
		Short: "Extract forensic records from Android SQLite databases",
	}
	rootCmd.AddCommand(cmd.Extract(), cmd.Report(), cmd.Timeline())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
