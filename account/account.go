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

package account

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Size is the length in bytes of an account identifier
const Size = 20

var ErrInvalidAccount = errors.New("invalid account")

// Account is an opaque account identifier in its canonical form: a
// lower-case "0x"-prefixed hex encoding of Size bytes
type Account string

// Parse validates and normalizes an account identifier
func Parse(s string) (Account, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != Size*2 {
		return "", fmt.Errorf(
			"%w: expected %d hex characters, got %d",
			ErrInvalidAccount,
			Size*2,
			len(raw),
		)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}
	return Account("0x" + strings.ToLower(raw)), nil
}

// MustParse is like Parse but panics on invalid input. It is intended for
// constants and tests
func MustParse(s string) Account {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes builds an account from its raw bytes
func FromBytes(b []byte) (Account, error) {
	if len(b) != Size {
		return "", fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidAccount,
			Size,
			len(b),
		)
	}
	return Account("0x" + hex.EncodeToString(b)), nil
}

// Bytes returns the raw account bytes. Accounts that were not produced by
// Parse or FromBytes return nil
func (a Account) Bytes() []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(string(a), "0x"))
	if err != nil || len(b) != Size {
		return nil
	}
	return b
}

func (a Account) String() string {
	return string(a)
}

// Valid returns true if the account is in canonical form
func (a Account) Valid() bool {
	p, err := Parse(string(a))
	return err == nil && p == a
}
