// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViperize(t *testing.T) {
	intFlag := func(flagSet *flag.FlagSet) {
		flagSet.Int("test.flag", 0, "test flag")
	}
	v, command := Viperize(intFlag)
	require.NoError(t, command.ParseFlags([]string{"--test.flag=5"}))
	assert.Equal(t, 5, v.GetInt("test.flag"))
}

func TestEnvOverride(t *testing.T) {
	strFlag := func(flagSet *flag.FlagSet) {
		flagSet.String("test.some-flag", "default", "test flag")
	}
	t.Setenv("TEST_SOME_FLAG", "from-env")
	v, _ := Viperize(strFlag)
	assert.Equal(t, "from-env", v.GetString("test.some-flag"))
}
