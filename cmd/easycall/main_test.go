package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lunfardo314/easycall/util/testutil"
	"github.com/stretchr/testify/require"
)

func runDemo(t *testing.T, tag, arg string) []string {
	var out bytes.Buffer
	err := run(&out, testutil.NewSimpleLogger(false), options{
		file: "testdata/demo.yaml",
		tag:  tag,
		arg:  arg,
		max:  10 * time.Second,
	})
	require.NoError(t, err)
	ret := make([]string, 0)
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		ret = append(ret, strings.TrimSpace(line))
	}
	return ret
}

func TestRun(t *testing.T) {
	t.Run("pause", func(t *testing.T) {
		lines := runDemo(t, "hello", "3")
		require.EqualValues(t, 3, len(lines))
		require.True(t, strings.HasSuffix(lines[0], "] hello"))
		require.True(t, strings.HasSuffix(lines[1], "] 5"))
		require.True(t, strings.HasPrefix(lines[2], "[ 500ms]"))
		require.True(t, strings.Contains(lines[2], "ff6162ff"))
	})
	t.Run("foreach and wait", func(t *testing.T) {
		lines := runDemo(t, "loop", "")
		require.EqualValues(t, 6, len(lines))
		for i, s := range []string{"0", "1", "2", "true", "countdown 2", "countdown 1"} {
			require.True(t, strings.HasSuffix(lines[i], "] "+s), lines[i])
		}
	})
	t.Run("unknown tag", func(t *testing.T) {
		lines := runDemo(t, "nope", "")
		require.EqualValues(t, []string{""}, lines)
	})
	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(&out, nil, options{list: true}))
		require.True(t, strings.Contains(out.String(), "math;Add;int;int"))
		require.True(t, strings.Contains(out.String(), "fl;Concat;[]uint8;[]uint8"))
	})
	t.Run("errors", func(t *testing.T) {
		log := testutil.NewSimpleLogger(false)
		require.Error(t, run(&bytes.Buffer{}, log, options{}))
		require.Error(t, run(&bytes.Buffer{}, log, options{file: "testdata/nope.yaml"}))
		require.Error(t, run(&bytes.Buffer{}, log, options{file: "testdata/demo.yaml", tag: "[unclosed"}))
	})
}
