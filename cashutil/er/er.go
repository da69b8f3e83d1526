// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package er

import (
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
)

// R is the result type returned by every fallible function in this
// codebase in place of the built-in error interface.  An R always wraps
// a message and a captured stack, and optionally an ErrorCode which
// callers can test with ErrorCode.Is.
type R interface {
	// Message returns the human readable explanation of the failure,
	// without any stack trace.
	Message() string

	// Stack returns the call stack which was captured when the error
	// was created, one frame per entry.
	Stack() []string

	// String formats the error including its code name, messages and,
	// when detail is enabled, the stack trace.
	String() string

	// Wrapped returns the underlying native error if this R was
	// created from one, nil otherwise.
	Wrapped() error
}

type err struct {
	code     *ErrorCode
	messages []string
	wrapped  error
	stack    *goerrors.Error
}

var _ R = (*err)(nil)

func (e *err) Message() string {
	out := make([]string, 0, len(e.messages)+1)
	for i := len(e.messages) - 1; i >= 0; i-- {
		out = append(out, e.messages[i])
	}
	if e.wrapped != nil {
		out = append(out, e.wrapped.Error())
	}
	return strings.Join(out, ": ")
}

func (e *err) Stack() []string {
	if e.stack == nil {
		return nil
	}
	return strings.Split(strings.TrimSpace(e.stack.ErrorStack()), "\n")
}

func (e *err) String() string {
	msg := e.Message()
	if e.code != nil {
		if msg == "" {
			return e.code.String()
		}
		return fmt.Sprintf("%s(%s)", e.code.String(), msg)
	}
	if msg == "" {
		msg = "unknown error"
	}
	return msg
}

func (e *err) Wrapped() error {
	return e.wrapped
}

func captureStack() *goerrors.Error {
	return goerrors.Wrap("", 3)
}

// New creates a new R from a message string.
func New(s string) R {
	return &err{messages: []string{s}, stack: captureStack()}
}

// Errorf creates a new R using a format string.
func Errorf(format string, args ...interface{}) R {
	return &err{messages: []string{fmt.Sprintf(format, args...)}, stack: captureStack()}
}

// E converts a native error into an R, returning nil for nil.
func E(e error) R {
	if e == nil {
		return nil
	}
	return &err{wrapped: e, stack: captureStack()}
}

// AddMessage attaches additional context to an existing R, mutating it
// in place.  A nil R is a no-op so it can be called unconditionally.
func AddMessage(e R, m string) {
	if ee, ok := e.(*err); ok {
		ee.messages = append(ee.messages, m)
	}
}

// Native unwraps an R to a plain error for handing to code outside of
// this codebase.  Nil maps to nil.
func Native(e R) error {
	if e == nil {
		return nil
	}
	if w := e.Wrapped(); w != nil {
		return w
	}
	return goerrors.New(e.String())
}

// ErrorType is a category of related error codes, typically one per
// package.  Codes are registered up front with Code or CodeWithDetail
// and compared with ErrorCode.Is.
type ErrorType struct {
	body *errorTypeBody
}

type errorTypeBody struct {
	name  string
	codes []*ErrorCode
}

// NewErrorType creates a new ErrorType with the given name, which by
// convention is "<package>.Err".
func NewErrorType(name string) ErrorType {
	return ErrorType{body: &errorTypeBody{name: name}}
}

// Code registers a new ErrorCode under this type.
func (t ErrorType) Code(name string) *ErrorCode {
	return t.CodeWithDetail(name, "")
}

// CodeWithDetail registers a new ErrorCode under this type along with a
// default human readable description.
func (t ErrorType) CodeWithDetail(name, detail string) *ErrorCode {
	c := &ErrorCode{Name: name, Detail: detail, body: t.body}
	t.body.codes = append(t.body.codes, c)
	return c
}

// Is returns true if the error carries any code belonging to this type.
func (t ErrorType) Is(e R) bool {
	return t.Decode(e) != nil
}

// Decode returns the ErrorCode carried by the error if it belongs to
// this type, nil otherwise.
func (t ErrorType) Decode(e R) *ErrorCode {
	if ee, ok := e.(*err); ok && ee.code != nil && ee.code.body == t.body {
		return ee.code
	}
	return nil
}

// Name returns the name which the ErrorType was created with.
func (t ErrorType) Name() string {
	return t.body.name
}

// GenericErrorType exists for packages which need only one or two error
// codes and do not warrant a type of their own.
var GenericErrorType = NewErrorType("er.Generic")

// ErrorCode is one registered failure mode of an ErrorType.
type ErrorCode struct {
	Name   string
	Detail string
	body   *errorTypeBody
}

// New creates an R carrying this code.  The info string and the inner
// error are both optional.
func (c *ErrorCode) New(info string, inner R) R {
	e := &err{code: c, stack: captureStack()}
	if info != "" {
		e.messages = append(e.messages, info)
	}
	if inner != nil {
		if ie, ok := inner.(*err); ok {
			e.messages = append(e.messages, ie.Message())
			e.wrapped = ie.wrapped
		}
	}
	return e
}

// Default creates an R carrying this code with no additional context.
func (c *ErrorCode) Default() R {
	return c.New("", nil)
}

// Is returns true if the error carries exactly this code.
func (c *ErrorCode) Is(e R) bool {
	if e == nil {
		return false
	}
	ee, ok := e.(*err)
	return ok && ee.code == c
}

func (c *ErrorCode) String() string {
	return fmt.Sprintf("%s.%s", c.body.name, c.Name)
}
