package rpc

import (
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FieldPath        = "path"
	FieldValue       = "value"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldAccountID   = "account_id"
	FieldAccessToken = "access_token"
	FieldOldPassword = "old_password"
	FieldNewPassword = "new_password"
)

// NewStruct builds a Struct whose fields are all strings.
func NewStruct(fields map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		s.Fields[k] = structpb.NewStringValue(v)
	}
	return s
}

// StringField returns the string stored under key. A missing field or one of
// another kind is an ErrInvalidInput.
func StringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", common.ErrInvalidInput, key)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: field %q is not a string", common.ErrInvalidInput, key)
	}
	return sv.StringValue, nil
}

func NewPutRequest(path string, value []byte) *structpb.Struct {
	return NewStruct(map[string]string{
		FieldPath:  path,
		FieldValue: base64.StdEncoding.EncodeToString(value),
	})
}

func ParsePutRequest(s *structpb.Struct) (string, []byte, error) {
	path, err := StringField(s, FieldPath)
	if err != nil {
		return "", nil, err
	}
	enc, err := StringField(s, FieldValue)
	if err != nil {
		return "", nil, err
	}
	value, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", nil, fmt.Errorf("%w: value is not base64", common.ErrInvalidInput)
	}
	return path, value, nil
}

func NewCredentials(email, password string) *structpb.Struct {
	return NewStruct(map[string]string{FieldEmail: email, FieldPassword: password})
}

func ParseCredentials(s *structpb.Struct) (email, password string, err error) {
	if email, err = StringField(s, FieldEmail); err != nil {
		return "", "", err
	}
	if password, err = StringField(s, FieldPassword); err != nil {
		return "", "", err
	}
	return email, password, nil
}

func NewPasswordChange(oldPassword, newPassword string) *structpb.Struct {
	return NewStruct(map[string]string{FieldOldPassword: oldPassword, FieldNewPassword: newPassword})
}

func ParsePasswordChange(s *structpb.Struct) (oldPassword, newPassword string, err error) {
	if oldPassword, err = StringField(s, FieldOldPassword); err != nil {
		return "", "", err
	}
	if newPassword, err = StringField(s, FieldNewPassword); err != nil {
		return "", "", err
	}
	return oldPassword, newPassword, nil
}
