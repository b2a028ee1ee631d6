package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandResult_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, CommandResult{ExitCode: 0}.Success())
	assert.False(t, CommandResult{ExitCode: 1, Stderr: "boom"}.Success())
}

func TestCommandCall_String(t *testing.T) {
	t.Parallel()

	call := CommandCall{Command: "bash", Args: []string{"/tmp/x.sh", "-b", "-p", "/opt/conda"}}
	assert.Equal(t, "bash /tmp/x.sh -b -p /opt/conda", call.String())
	assert.Equal(t, "uname", CommandCall{Command: "uname"}.String())
}
