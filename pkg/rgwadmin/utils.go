// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package rgwadmin

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

const queryAdminPath = "/admin"

// buildQueryPath constructs an API query path with the given parameters.
func buildQueryPath(endpoint, path, args string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s%s%s%s", endpoint, queryAdminPath, path, separator, args)
}

// valueToURLParams encodes a struct into URL query parameters.
func valueToURLParams(i interface{}, acceptableFields []string) url.Values {
	values := url.Values{}
	values.Add("format", "json")

	allowed := make(map[string]struct{}, len(acceptableFields))
	for _, field := range acceptableFields {
		allowed[field] = struct{}{}
	}

	populateURLParams(i, allowed, &values)
	return values
}

// populateURLParams extracts struct fields and adds them to URL parameters.
// Zero values are left out. A bool tagged with the "flag" option is sent with
// an empty value, e.g. `quota=` on the user endpoint.
func populateURLParams(i interface{}, allowedFields map[string]struct{}, values *url.Values) {
	v := reflect.ValueOf(i)
	t := reflect.TypeOf(i)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
		t = t.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < v.NumField(); i++ {
		fieldValue := v.Field(i)
		fieldType := t.Field(i)
		tag := fieldType.Tag.Get("url")

		if tag == "-" {
			continue
		}

		tagParts := strings.Split(tag, ",")
		name := tagParts[0]
		if name == "" {
			name = fieldType.Name
		}

		if _, ok := allowedFields[name]; !ok {
			continue
		}

		switch fieldValue.Kind() {
		case reflect.String:
			if fieldValue.String() != "" {
				values.Add(name, fieldValue.String())
			}

		case reflect.Bool:
			if !fieldValue.Bool() {
				continue
			}
			if hasTagOption(tagParts[1:], "flag") {
				values.Add(name, "")
			} else {
				values.Add(name, "true")
			}

		case reflect.Int, reflect.Int64:
			if fieldValue.Int() != 0 {
				values.Add(name, fmt.Sprint(fieldValue.Int()))
			}

		case reflect.Ptr:
			if !fieldValue.IsNil() {
				values.Add(name, fmt.Sprint(fieldValue.Elem()))
			}
		}
	}
}

func hasTagOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
