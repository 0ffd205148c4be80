// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflectx

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"cogentcore.org/sim/base/errors"
)

// SetFromDefaultTags sets the fields of the given struct pointer from
// their `default:` tags. Struct fields without a tag are processed
// recursively; nil pointers are left alone. Values starting with [ or {
// are decoded as JSON, with single quotes allowed for double quotes.
// All fields that can be set are set; the first failure is returned.
func SetFromDefaultTags(obj any) error {
	ov := reflect.ValueOf(obj)
	if ov.Kind() != reflect.Pointer || ov.IsNil() {
		return nil
	}
	val := NonPointerValue(ov)
	if val.Kind() != reflect.Struct {
		return nil
	}
	typ := val.Type()
	var err error
	for i := range typ.NumField() {
		f := typ.Field(i)
		fv := val.Field(i)
		if !f.IsExported() {
			continue
		}
		def, ok := f.Tag.Lookup("default")
		if NonPointerType(f.Type).Kind() == reflect.Struct && (!ok || def == "") {
			if fv.Kind() == reflect.Pointer && fv.IsNil() {
				continue
			}
			if serr := SetFromDefaultTags(PointerValue(fv).Interface()); serr != nil && err == nil {
				err = serr
			}
			continue
		}
		if !ok || def == "" {
			continue
		}
		if serr := SetFromString(fv, def); serr != nil && err == nil {
			err = fmt.Errorf("reflectx.SetFromDefaultTags: field %s of %s: %w", f.Name, typ.Name(), serr)
		}
	}
	return err
}

// SetFromString sets the settable value v from its string form.
func SetFromString(v reflect.Value, s string) error {
	if !v.CanSet() {
		return errors.New("value cannot be set")
	}
	if s != "" && (s[0] == '[' || s[0] == '{') {
		s = strings.ReplaceAll(s, `'`, `"`)
		return json.Unmarshal([]byte(s), PointerValue(v).Interface())
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 0, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 0, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %v", v.Kind())
	}
	return nil
}
