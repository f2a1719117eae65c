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

// Package cmd provides the androidevidence commandline subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidevidence"
)

// Extract is the androidevidence extract commandline subcommand.
func Extract() *cobra.Command {
	var flags runConfig
	var configPath string

	extractCommand := &cobra.Command{
		Use:   "extract <database>...",
		Short: "Extract canonical records from Android SQLite databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			flags.Inputs = args

			config := &runConfig{Output: "records.json"}
			if configPath != "" {
				fileConfig, err := loadConfig(fs, configPath)
				if err != nil {
					return err
				}
				config = fileConfig
				if config.Output == "" {
					config.Output = "records.json"
				}
			}
			config.merge(flags)

			store, err := runExtraction(cmd, fs, config)
			if err != nil {
				return err
			}

			if err := store.ExportJSON(fs, config.Output); err != nil {
				return err
			}

			report := store.Report()
			fmt.Fprintf(cmd.OutOrStdout(), "%d records from %d files written to %s\n",
				len(store.Records()), len(report.SourceFiles), config.Output)
			if report.Cancelled {
				fmt.Fprintln(cmd.OutOrStdout(), "run was cancelled, results are partial")
			}
			return nil
		},
	}

	extractCommand.Flags().StringVarP(&flags.Output, "output", "o", "", "output file (default records.json)")
	addRunFlags(extractCommand, &flags, &configPath)
	return extractCommand
}

func addRunFlags(command *cobra.Command, flags *runConfig, configPath *string) {
	command.Flags().StringVar(configPath, "config", "", "YAML run configuration")
	command.Flags().StringVar(&flags.Registry, "registry", "", "schema registry file, replaces the packaged registry")
	command.Flags().IntVar(&flags.Workers, "workers", 0, "files processed in parallel (default number of CPUs)")
	command.Flags().StringVar(&flags.FileTimeout, "file-timeout", "", "processing time limit per file, e.g. 30s")
	command.Flags().StringVar(&flags.ExtractedAt, "extracted-at", "", "extraction time (RFC 3339), overrides file modification times")
}

func runExtraction(cmd *cobra.Command, fs afero.Fs, config *runConfig) (*androidevidence.RecordStore, error) {
	if len(config.Inputs) == 0 {
		return nil, fmt.Errorf("requires at least one input database")
	}
	options, err := config.options(fs)
	if err != nil {
		return nil, err
	}
	return androidevidence.Extract(cmd.Context(), config.Inputs, options)
}
