// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package validator

import (
	"fmt"
	"strings"

	"github.com/researchplatform/rpctl/pkg/errors"
	"github.com/researchplatform/rpctl/pkg/version"
)

// Operator is a comparison operator in a constraint expression.
type Operator string

const (
	OperatorGTE   Operator = ">="
	OperatorLTE   Operator = "<="
	OperatorGT    Operator = ">"
	OperatorLT    Operator = "<"
	OperatorEQ    Operator = "=="
	OperatorNE    Operator = "!="
	OperatorExact Operator = ""
)

// Constraint is a parsed expression such as ">= 20.10".
type Constraint struct {
	Operator Operator
	Value    string
}

// ParseConstraint parses expr. Operators are matched longest first.
func ParseConstraint(expr string) (*Constraint, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "constraint expression cannot be empty")
	}

	c := &Constraint{Operator: OperatorExact, Value: expr}
	for _, op := range []Operator{OperatorGTE, OperatorLTE, OperatorNE, OperatorEQ, OperatorGT, OperatorLT} {
		if strings.HasPrefix(expr, string(op)) {
			c.Operator = op
			c.Value = strings.TrimSpace(strings.TrimPrefix(expr, string(op)))
			break
		}
	}
	if c.Value == "" {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "constraint value cannot be empty after operator",
			map[string]any{"expression": expr})
	}
	return c, nil
}

// MustParseConstraint panics when expr does not parse.
func MustParseConstraint(expr string) *Constraint {
	c, err := ParseConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// Evaluate reports whether actual satisfies the constraint. Ordering
// operators require both sides to parse as versions; == and != compare
// versions when both parse and fall back to string comparison otherwise.
func (c *Constraint) Evaluate(actual string) (bool, error) {
	actual = strings.TrimSpace(actual)

	switch c.Operator {
	case OperatorExact:
		return actual == c.Value, nil
	case OperatorEQ, OperatorNE:
		equal := actual == c.Value
		if want, err := version.ParseVersion(c.Value); err == nil {
			if got, err := version.ParseVersion(actual); err == nil {
				equal = got.Compare(want) == 0
			}
		}
		if c.Operator == OperatorNE {
			return !equal, nil
		}
		return equal, nil
	case OperatorGTE, OperatorGT, OperatorLTE, OperatorLT:
		want, err := version.ParseVersion(c.Value)
		if err != nil {
			return false, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"cannot parse expected version", err, map[string]any{"version": c.Value})
		}
		got, err := version.ParseVersion(actual)
		if err != nil {
			return false, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"cannot parse actual version", err, map[string]any{"version": actual})
		}
		cmp := got.Compare(want)
		//nolint:exhaustive // only ordering operators reach this switch
		switch c.Operator {
		case OperatorGTE:
			return cmp >= 0, nil
		case OperatorGT:
			return cmp > 0, nil
		case OperatorLTE:
			return cmp <= 0, nil
		default:
			return cmp < 0, nil
		}
	default:
		return false, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"unknown operator", map[string]any{"operator": c.Operator})
	}
}

func (c *Constraint) String() string {
	if c.Operator == OperatorExact {
		return c.Value
	}
	return fmt.Sprintf("%s %s", c.Operator, c.Value)
}
