package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNotificationLogsRequiresClass(t *testing.T) {
	// Without a resolved class there is nothing to show; the guard returns
	// before any query runs, so a nil handle proves it.
	logs, err := GetNotificationLogs(nil, "", 50)
	require.NoError(t, err)
	assert.Nil(t, logs)
}
