package rpc

import (
	"testing"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestPutRequest(t *testing.T) {
	value := []byte{0, 1, 2, 0xff}
	path, got, err := ParsePutRequest(NewPutRequest("accounts/a/profile", value))
	require.NoError(t, err)
	assert.Equal(t, "accounts/a/profile", path)
	assert.Equal(t, value, got)

	_, _, err = ParsePutRequest(NewStruct(map[string]string{FieldPath: "p", FieldValue: "%%%"}))
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, _, err = ParsePutRequest(NewStruct(map[string]string{FieldValue: ""}))
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestStringField(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"n": 42.0, "s": "x"})
	require.NoError(t, err)

	v, err := StringField(s, "s")
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	_, err = StringField(s, "n")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = StringField(s, "missing")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = StringField(nil, "s")
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestCredentialsAndPasswordChange(t *testing.T) {
	email, password, err := ParseCredentials(NewCredentials("a@example.com", "p1"))
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
	assert.Equal(t, "p1", password)

	oldPassword, newPassword, err := ParsePasswordChange(NewPasswordChange("p1", "p2"))
	require.NoError(t, err)
	assert.Equal(t, "p1", oldPassword)
	assert.Equal(t, "p2", newPassword)

	_, _, err = ParseCredentials(NewStruct(map[string]string{FieldEmail: "a@example.com"}))
	require.ErrorIs(t, err, common.ErrInvalidInput)
}
