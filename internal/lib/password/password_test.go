package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "lower and digits", password: "abc123", wantErr: false},
		{name: "lower and upper", password: "abcDEF", wantErr: false},
		{name: "upper and digits", password: "ABC123", wantErr: false},
		{name: "all three classes", password: "Abc12345", wantErr: false},
		{name: "too short", password: "aB1", wantErr: true},
		{name: "too long", password: "Abc123Abc123Abc123Abc123Abc123Abc", wantErr: true},
		{name: "single class lower", password: "abcdef", wantErr: true},
		{name: "single class digits", password: "123456", wantErr: true},
		{name: "empty", password: "", wantErr: true},
		{name: "exactly six chars", password: "abc12f", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPolicy(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	assert.NoError(t, CompareHash(hash, "Secret123"))
	assert.Error(t, CompareHash(hash, "wrongpass"))
}
