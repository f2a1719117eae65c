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

package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/androidevidence"
)

// Timeline is the androidevidence timeline commandline subcommand.
func Timeline() *cobra.Command {
	var flags runConfig
	var configPath string

	timelineCommand := &cobra.Command{
		Use:   "timeline <database>...",
		Short: "Print all dated records in chronological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			flags.Inputs = args

			config := &runConfig{}
			if configPath != "" {
				fileConfig, err := loadConfig(fs, configPath)
				if err != nil {
					return err
				}
				config = fileConfig
			}
			config.merge(flags)

			store, err := runExtraction(cmd, fs, config)
			if err != nil {
				return err
			}

			for _, event := range store.Timeline() {
				fmt.Fprintln(cmd.OutOrStdout(), androidevidence.FormatEvent(event))
			}
			return nil
		},
	}

	addRunFlags(timelineCommand, &flags, &configPath)
	return timelineCommand
}
