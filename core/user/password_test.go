package user

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword(): %v", err)
	}
	b64 := base64.StdEncoding.EncodeToString([]byte("123"))

	tests := []struct {
		name       string
		stored     string
		pwd        string
		wantLegacy bool
		wantErr    bool
	}{
		{name: "bcrypt ok", stored: hash, pwd: "s3cret!"},
		{name: "bcrypt mismatch", stored: hash, pwd: "nope", wantErr: true},
		{name: "base64 ok", stored: b64, pwd: "123", wantLegacy: true},
		{name: "plain ok", stored: "123", pwd: "123", wantLegacy: true},
		{name: "legacy mismatch", stored: b64, pwd: "1234", wantErr: true},
		{name: "stored value typed verbatim", stored: b64, pwd: b64, wantLegacy: true},
		{name: "empty stored", stored: "", pwd: "", wantErr: true},
		{name: "empty pwd", stored: b64, pwd: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legacy, err := CheckPassword(tt.stored, tt.pwd)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantLegacy, legacy)
		})
	}
}
