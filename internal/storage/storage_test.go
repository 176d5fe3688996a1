package storage

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 200, ClampLimit(0))
	assert.Equal(t, 200, ClampLimit(-5))
	assert.Equal(t, 25, ClampLimit(25))
	assert.Equal(t, 10000, ClampLimit(50000))
}

func TestEncodeFields(t *testing.T) {
	empty, err := EncodeFields(nil)
	require.NoError(t, err)
	assert.False(t, empty.Valid)

	encoded, err := EncodeFields(map[string]interface{}{"subject": "intro"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"intro"}`, encoded.String)

	_, err = EncodeFields(map[string]interface{}{"bad": func() {}})
	assert.Error(t, err)
}

func TestFill(t *testing.T) {
	var e EventRow
	require.NoError(t, e.Fill(Null("hello"), Null(`{"score":"3"}`), Null("")))
	require.NotNil(t, e.Message)
	assert.Equal(t, "hello", *e.Message)
	assert.Nil(t, e.SessionID)
	assert.Equal(t, "3", e.Fields["score"])

	bad := EventRow{EventID: 7}
	err := bad.Fill(sql.NullString{}, Null("{not json"), sql.NullString{})
	assert.ErrorContains(t, err, "event 7")
}
