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
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/forensicanalysis/androidevidence"
	"github.com/forensicanalysis/androidevidence/registry"
)

// runConfig is the YAML configuration accepted by the extract and timeline
// subcommands. Flags override configuration values.
type runConfig struct {
	Inputs      []string `yaml:"inputs"`
	Output      string   `yaml:"output"`
	Registry    string   `yaml:"registry"`
	Workers     int      `yaml:"workers"`
	FileTimeout string   `yaml:"file_timeout"`
	ExtractedAt string   `yaml:"extracted_at"`
}

func loadConfig(fs afero.Fs, path string) (*runConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config %s", path)
	}
	config := &runConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "could not parse config %s", path)
	}
	return config, nil
}

// options turns the configuration into extraction options.
func (c *runConfig) options(fs afero.Fs) (androidevidence.Options, error) {
	options := androidevidence.Options{
		FS:      fs,
		Workers: c.Workers,
	}

	if c.FileTimeout != "" {
		d, err := time.ParseDuration(c.FileTimeout)
		if err != nil {
			return options, errors.Wrapf(err, "bad file timeout %q", c.FileTimeout)
		}
		options.FileTimeout = d
	}

	if c.Registry != "" {
		r, err := registry.LoadFile(fs, c.Registry)
		if err != nil {
			return options, err
		}
		options.Registry = r
	}

	if c.ExtractedAt != "" {
		t, err := time.Parse(time.RFC3339, c.ExtractedAt)
		if err != nil {
			return options, errors.Wrapf(err, "bad extraction time %q", c.ExtractedAt)
		}
		options.ExtractedAt = t
	}

	return options, nil
}

// merge applies non-zero values from flags over the file configuration.
func (c *runConfig) merge(flags runConfig) {
	if len(flags.Inputs) > 0 {
		c.Inputs = flags.Inputs
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Registry != "" {
		c.Registry = flags.Registry
	}
	if flags.Workers != 0 {
		c.Workers = flags.Workers
	}
	if flags.FileTimeout != "" {
		c.FileTimeout = flags.FileTimeout
	}
	if flags.ExtractedAt != "" {
		c.ExtractedAt = flags.ExtractedAt
	}
}
