// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"

	"github.com/cashkit/cashd/cashutil/er"
)

// MessageError describes an issue with the serialized form of a
// transaction or one of its components: truncated input, a non-canonical
// variable length integer, an element exceeding its maximum allowed size,
// and so on.
//
// Carrying a distinct code lets callers differentiate malformed data from
// general io errors such as io.EOF.
var MessageError *er.ErrorCode = er.GenericErrorType.Code("wire.MessageError")

// messageError creates an error for the given function and description.
func messageError(f string, desc string) er.R {
	return MessageError.New(fmt.Sprintf("%s: %s", f, desc), nil)
}
