// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"reflect"
)

// PrintJSON writes value to Stdout as indented JSON. A nil slice is
// written as [] rather than null.
func (inv *Invocation) PrintJSON(value any) error {
	encoder := json.NewEncoder(inv.Stdout)
	encoder.SetIndent("", "  ")
	if v := reflect.ValueOf(value); v.Kind() == reflect.Slice && v.IsNil() {
		value = reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return encoder.Encode(value)
}
