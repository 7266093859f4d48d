package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelp(t *testing.T) {
	assert := assert.New(t)

	r := mustCreateRemote(t)
	defer r.Shutdown()

	rootCmd := newRootCmd(&Cli{r: r})
	rootCmd.SetOut(&bytes.Buffer{})

	rootCmd.SetArgs([]string{})
	assert.NoError(rootCmd.Execute())

	rootCmd.SetArgs([]string{"event"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"kinds"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"version"})
	assert.NoError(rootCmd.Execute())

	rootCmd.SetArgs([]string{"event", "send", "--help"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"query", "--help"})
	assert.NoError(rootCmd.Execute())
	rootCmd.SetArgs([]string{"delete-all", "--help"})
	assert.NoError(rootCmd.Execute())
}

func TestKinds(t *testing.T) {
	assert := assert.New(t)

	out := mustExecute(t, nil, []string{"kinds"})

	assert.Contains(out, "process-instances\n")
	assert.Contains(out, "audit-events\n")
	assert.Contains(out, "tasks\n")
}

func TestKindValue(t *testing.T) {
	assert := assert.New(t)

	var v kindValue
	assert.Equal("", v.String())

	assert.NoError(v.Set("process-instances"))
	assert.Equal("process-instances", v.String())

	assert.NoError(v.Set("task"))
	assert.Equal("tasks", v.String())

	assert.Error(v.Set("jobs"))
}
