package snapshots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRunRejectsMalformedID(t *testing.T) {
	// A malformed id never reaches the database; it is a clean miss.
	l := NewRunLog(nil)

	_, err := l.GetRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = l.GetRun(context.Background(), "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"aws", "azure"}, splitCSV("aws,azure"))
	assert.Equal(t, []string{"aws"}, splitCSV("aws"))
}
