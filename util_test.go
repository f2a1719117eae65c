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

package androidevidence

import (
	"reflect"
	"testing"
)

func Test_snakeKeys(t *testing.T) {
	type args struct {
		f map[string]interface{}
	}
	tests := []struct {
		name string
		args args
		want map[string]interface{}
	}{
		{
			"camel case keys",
			args{map[string]interface{}{"DisplayName": "Alice", "ThreadID": int64(7)}},
			map[string]interface{}{"display_name": "Alice", "thread_id": int64(7)},
		},
		{
			"empty values dropped",
			args{map[string]interface{}{"Name": "Alice", "Package": "", "Phones": []string{}}},
			map[string]interface{}{"name": "Alice"},
		},
		{
			"nested maps",
			args{map[string]interface{}{"Provenance": map[string]interface{}{"source_ids": []string{"a"}}}},
			map[string]interface{}{"provenance": map[string]interface{}{"source_ids": []string{"a"}}},
		},
		{
			"lists",
			args{map[string]interface{}{"History": []interface{}{map[string]interface{}{"Field": "title"}}}},
			map[string]interface{}{"history": []interface{}{map[string]interface{}{"field": "title"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snakeKeys(tt.args.f); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("snakeKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}
