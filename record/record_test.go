package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellect4all/slothdb/record"
)

func TestCompareOrdersByKey(t *testing.T) {
	decision, drop := record.Compare(record.Record{Key: "a"}, record.Record{Key: "b"})
	assert.Equal(t, record.TakeLeft, decision)
	assert.False(t, drop)

	decision, drop = record.Compare(record.Record{Key: "b"}, record.Record{Key: "a"})
	assert.Equal(t, record.TakeRight, decision)
	assert.False(t, drop)
}

func TestCompareDuplicateKeyTakesLeftAndDrops(t *testing.T) {
	decision, drop := record.Compare(record.Record{Key: "a", Value: "new"}, record.Record{Key: "a", Value: "old"})
	require.Equal(t, record.TakeLeft, decision)
	assert.True(t, drop)
}

func TestKeyValidRejectsReservedBytes(t *testing.T) {
	assert.True(t, record.Record{Key: "plain"}.KeyValid())
	assert.False(t, record.Record{Key: "has:colon"}.KeyValid())
	assert.False(t, record.Record{Key: "has\nnewline"}.KeyValid())
}

func TestCompareResultsPropagatesErrorsInOrder(t *testing.T) {
	ok := record.Ok(record.Record{Key: "a"})
	bad := record.Errf(assertErr)

	decision := record.CompareResults(bad, ok)
	assert.True(t, decision.Left)
	assert.False(t, decision.DropOther)

	decision = record.CompareResults(ok, bad)
	assert.False(t, decision.Left)
	assert.False(t, decision.DropOther)
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
