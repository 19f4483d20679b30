// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package lex

import (
	"testing"

	"github.com/consensys/go-mips/pkg/util/assert"
)

var (
	digit  = Within('0', '9')
	hex    = Or(digit, Within('a', 'f'), Within('A', 'F'))
	number = Or(Sequence(Unit('0', 'x'), Many(hex)), Many(digit))
)

func Test_Scanner_01(t *testing.T) {
	assert.Equal(t, uint(3), number([]rune("123abc")))
	assert.Equal(t, uint(5), number([]rune("0x1F2g")))
	assert.Equal(t, uint(0), number([]rune("abc")))
}

func Test_Scanner_02(t *testing.T) {
	assert.True(t, Matches(number, []rune("0xdead")))
	assert.False(t, Matches(number, []rune("0xdeadz")))
	assert.False(t, Matches(number, []rune{}))
}

func Test_Scanner_03(t *testing.T) {
	scanner := String(".text")
	//
	assert.Equal(t, uint(5), scanner([]rune(".TEXT")))
	assert.Equal(t, uint(5), scanner([]rune(".text more")))
	assert.Equal(t, uint(0), scanner([]rune(".tex")))
}

func Test_Scanner_04(t *testing.T) {
	// A sign may be followed by nothing at the end of input
	signed := SequenceNullableLast(Unit('-'), Many(digit))
	//
	assert.Equal(t, uint(3), signed([]rune("-12")))
	assert.Equal(t, uint(1), signed([]rune("-")))
	assert.Equal(t, uint(0), signed([]rune("+1")))
}

func Test_Scanner_05(t *testing.T) {
	both := And(Many(hex), Many(digit))
	//
	assert.Equal(t, uint(3), both([]rune("12a")))
	assert.Equal(t, uint(0), both([]rune("a12")))
}
