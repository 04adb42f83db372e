package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhipl/backoffice/jobs"
)

func TestBuildTask(t *testing.T) {
	task, err := buildTask(jobs.TaskLookupsRefresh)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskLookupsRefresh, task.Type())

	_, err = buildTask("reports:email")
	require.ErrorContains(t, err, "unsupported job")
}

func TestUnconfiguredCLI(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskLookupsRefresh)
	require.ErrorContains(t, err, "client not configured")
	_, err = c.InspectQueue(context.Background())
	require.ErrorContains(t, err, "inspector not configured")

	_, err = NewJobsCLI("")
	require.Error(t, err)
}
