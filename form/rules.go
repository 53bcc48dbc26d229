package form

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrymomot/formstream/validate"
)

// fieldRule checks one bound field value and returns a located validation
// error on failure. Rules run only after the whole form bound successfully.
type fieldRule func(field Name, v reflect.Value) *Error

// compileRules parses a field's `validate` tag into rules, resolved at plan
// build so malformed tags fail loudly instead of silently passing:
//
//	Name  string `form:"name" validate:"required,minlen=2,maxlen=120"`
//	Age   uint8  `form:"age" validate:"min=1,max=150"`
//	Color string `form:"color" validate:"oneof=red green blue"`
//
// Rules apply to string and numeric fields; pointer fields are checked only
// when present.
func compileRules(owner reflect.Type, sf reflect.StructField) []fieldRule {
	tag := sf.Tag.Get("validate")
	if tag == "" {
		return nil
	}

	base := sf.Type
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	bad := func(format string, args ...any) {
		detail := fmt.Sprintf(format, args...)
		panic(fmt.Sprintf("form: invalid validate tag on %s.%s: %s", owner, sf.Name, detail))
	}

	var rules []fieldRule
	for _, spec := range strings.Split(tag, ",") {
		name, param, hasParam := strings.Cut(spec, "=")

		switch name {
		case "required":
			if isNumericKind(base.Kind()) {
				rules = append(rules, numericRule(func(field string, v float64) validate.Rule {
					return validate.RequiredNum(field, v)
				}))
			} else if base.Kind() == reflect.String {
				rules = append(rules, stringRule(func(field, v string) validate.Rule {
					return validate.RequiredString(field, v)
				}))
			} else {
				bad("rule %q needs a string or numeric field, got %s", name, base)
			}

		case "minlen", "maxlen", "len":
			if base.Kind() != reflect.String {
				bad("rule %q needs a string field, got %s", name, base)
			}
			n, err := strconv.Atoi(param)
			if !hasParam || err != nil {
				bad("rule %q needs an integer parameter", name)
			}
			rule := name
			rules = append(rules, stringRule(func(field, v string) validate.Rule {
				switch rule {
				case "minlen":
					return validate.MinLenString(field, v, n)
				case "maxlen":
					return validate.MaxLenString(field, v, n)
				default:
					return validate.LenString(field, v, n)
				}
			}))

		case "min", "max":
			if !isNumericKind(base.Kind()) {
				bad("rule %q needs a numeric field, got %s", name, base)
			}
			bound, err := strconv.ParseFloat(param, 64)
			if !hasParam || err != nil {
				bad("rule %q needs a numeric parameter", name)
			}
			if name == "min" {
				rules = append(rules, numericRule(func(field string, v float64) validate.Rule {
					return validate.MinNum(field, v, bound)
				}))
			} else {
				rules = append(rules, numericRule(func(field string, v float64) validate.Rule {
					return validate.MaxNum(field, v, bound)
				}))
			}

		case "oneof":
			if base.Kind() != reflect.String {
				bad("rule %q needs a string field, got %s", name, base)
			}
			if !hasParam || param == "" {
				bad("rule %q needs space-separated choices", name)
			}
			allowed := strings.Fields(param)
			rules = append(rules, stringRule(func(field, v string) validate.Rule {
				return validate.OneOfString(field, v, allowed...)
			}))

		case "matches":
			if base.Kind() != reflect.String {
				bad("rule %q needs a string field, got %s", name, base)
			}
			re, err := regexp.Compile(param)
			if !hasParam || err != nil {
				bad("rule %q needs a valid pattern: %v", name, err)
			}
			rules = append(rules, stringRule(func(field, v string) validate.Rule {
				return validate.MatchesString(field, v, re)
			}))

		case "email":
			if base.Kind() != reflect.String {
				bad("rule %q needs a string field, got %s", name, base)
			}
			rules = append(rules, stringRule(func(field, v string) validate.Rule {
				return validate.EmailString(field, v)
			}))

		default:
			bad("unknown rule %q", name)
		}
	}

	return rules
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// derefRule unwraps pointers at check time; an absent optional passes.
func derefRule(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, true
}

func stringRule(mk func(field, value string) validate.Rule) fieldRule {
	return func(field Name, v reflect.Value) *Error {
		v, ok := derefRule(v)
		if !ok {
			return nil
		}
		r := mk(string(field), v.String())
		if r.Check() {
			return nil
		}
		return ValidationError(r.Error.Message).WithName(field)
	}
}

func numericRule(mk func(field string, value float64) validate.Rule) fieldRule {
	return func(field Name, v reflect.Value) *Error {
		v, ok := derefRule(v)
		if !ok {
			return nil
		}
		var num float64
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			num = float64(v.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			num = float64(v.Uint())
		default:
			num = v.Float()
		}
		r := mk(string(field), num)
		if r.Check() {
			return nil
		}
		return ValidationError(r.Error.Message).WithName(field)
	}
}
