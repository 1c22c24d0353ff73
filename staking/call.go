// Copyright 2026 Blink Labs Software
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

package staking

import (
	"fmt"
	"math"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Generic call method names understood by Apply
const (
	MethodSetRewardRate      = "setRewardRate"
	MethodSetStakeLockTime   = "setStakeLockTime"
	MethodSetUnstakeLockTime = "setUnstakeLockTime"
)

// Call is a generic parameter change. Lock time arguments are in seconds
type Call struct {
	_      struct{} `cbor:",toarray"`
	Method string
	Args   []uint64
}

// EncodeCall builds the CBOR encoding of a generic call
func EncodeCall(method string, args ...uint64) ([]byte, error) {
	if args == nil {
		args = []uint64{}
	}
	return cbor.Marshal(Call{Method: method, Args: args})
}

// MustEncodeCall is like EncodeCall but panics on error
func MustEncodeCall(method string, args ...uint64) []byte {
	ret, err := EncodeCall(method, args...)
	if err != nil {
		panic(err)
	}
	return ret
}

// DecodeCall parses the CBOR encoding of a generic call
func DecodeCall(data []byte) (Call, error) {
	var c Call
	if len(data) == 0 {
		return c, fmt.Errorf("%w: empty call", ErrMalformedCall)
	}
	if err := cbor.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: %w", ErrMalformedCall, err)
	}
	return c, nil
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%v)", c.Method, c.Args)
}

// SecondsToDuration converts a lock time in seconds to a time.Duration
func SecondsToDuration(secs uint64) (time.Duration, error) {
	if secs > uint64(math.MaxInt64/int64(time.Second)) {
		return 0, fmt.Errorf("%w: %d seconds", ErrInvalidLockTime, secs)
	}
	return time.Duration(secs) * time.Second, nil
}

func (c Call) singleArg() (uint64, error) {
	if len(c.Args) != 1 {
		return 0, fmt.Errorf(
			"%w: %s expects 1 argument, got %d",
			ErrMalformedCall,
			c.Method,
			len(c.Args),
		)
	}
	return c.Args[0], nil
}
