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

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// Report is the androidevidence report commandline subcommand. It summarizes
// a previously exported run without loading all records into memory.
func Report() *cobra.Command {
	return &cobra.Command{
		Use:   "report <records.json>",
		Short: "Summarize an exported extraction run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(afero.NewOsFs(), args[0])
			if err != nil {
				return errors.Wrapf(err, "could not read %s", args[0])
			}
			if !gjson.ValidBytes(data) {
				return errors.Errorf("%s is not valid JSON", args[0])
			}

			out := cmd.OutOrStdout()
			report := gjson.GetBytes(data, "report")
			fmt.Fprintf(out, "run:      %s - %s\n",
				report.Get("started_at").String(), report.Get("finished_at").String())
			if report.Get("cancelled").Bool() {
				fmt.Fprintln(out, "          cancelled, results are partial")
			}
			fmt.Fprintf(out, "records:  %d\n", gjson.GetBytes(data, "records.#").Int())

			fmt.Fprintln(out, "files:")
			report.Get("source_files").ForEach(func(_, file gjson.Result) bool {
				artifact := file.Get("artifact").String()
				if artifact == "" {
					artifact = "-"
				}
				fmt.Fprintf(out, "  %-20s %-18s %s\n",
					file.Get("status").String(), artifact, file.Get("path").String())
				return true
			})

			conflicts := report.Get("conflicts")
			if conflicts.Exists() && len(conflicts.Array()) > 0 {
				fmt.Fprintln(out, "conflicts:")
				conflicts.ForEach(func(_, conflict gjson.Result) bool {
					fmt.Fprintf(out, "  %s field %s disagrees between sources\n",
						conflict.Get("artifact").String(), conflict.Get("field").String())
					return true
				})
			}

			report.Get("totals").ForEach(func(key, value gjson.Result) bool {
				fmt.Fprintf(out, "%-24s %d\n", key.String()+":", value.Int())
				return true
			})
			return nil
		},
	}
}
