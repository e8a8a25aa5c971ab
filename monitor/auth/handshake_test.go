package auth_test

import (
	"bufio"
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/kbcore/monitor/auth"
)

func TestReadClientNonce(t *testing.T) {
	validNonce := make([]byte, 32)
	for i := range validNonce {
		validNonce[i] = byte(i)
	}

	testCases := []struct {
		name          string
		input         []byte
		expectedNonce []byte
		expectedErr   error
	}{
		{name: "Valid nonce", input: validNonce, expectedNonce: validNonce},
		{name: "Short input", input: []byte{1, 2, 3}, expectedErr: fmt.Errorf("read client nonce: unexpected EOF")},
		{name: "Empty input", input: []byte{}, expectedErr: fmt.Errorf("read client nonce: EOF")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := bytes.NewBuffer(tc.input)
			nonce, err := auth.ReadClientNonce(buf)

			if tc.expectedErr != nil {
				assert.EqualError(t, err, tc.expectedErr.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedNonce, nonce)
		})
	}
}

func TestWriteServerHandshake(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		w := bytes.NewBuffer(nil)
		serverNonce, err := auth.WriteServerHandshake(w)
		assert.NoError(t, err)
		assert.Len(t, serverNonce, 32)

		resp := w.Bytes()
		assert.Equal(t, "OK\x00", string(resp[:3]))
		assert.Equal(t, serverNonce, resp[3:])
		assert.Len(t, resp, 35)
	})

	t.Run("Err no writer", func(t *testing.T) {
		_, err := auth.WriteServerHandshake(nil)
		assert.EqualError(t, err, "write response: write on nil pointer")
	})

	t.Run("Err closed writer", func(t *testing.T) {
		_, w := io.Pipe()
		w.Close()
		_, err := auth.WriteServerHandshake(w)
		assert.Error(t, err)
	})
}

func TestIsAuthHandshake(t *testing.T) {
	testCases := []struct {
		name           string
		input          *bufio.Reader
		expectedResult bool
		expectedErr    error
	}{
		{
			name:           "IS_AUTH",
			input:          bufio.NewReader(bytes.NewBuffer([]byte(auth.HandshakeMagic))),
			expectedResult: true,
		},
		{
			name:           "NOT_AUTH",
			input:          bufio.NewReader(bytes.NewBuffer([]byte("HEsdffdLLO\x00"))),
			expectedResult: false,
		},
		{
			name:        "ERR_INCOMPLETE",
			input:       bufio.NewReader(bytes.NewBuffer([]byte("kb"))),
			expectedErr: fmt.Errorf("EOF"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := auth.IsAuthHandshake(tc.input)
			if tc.expectedErr != nil {
				assert.EqualError(t, err, tc.expectedErr.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedResult, result)
		})
	}
}

func TestFullHandshake(t *testing.T) {
	validKey, err := auth.DeriveKey("test123")
	assert.NoError(t, err)
	wrongKey, err := auth.DeriveKey("wrongpass")
	assert.NoError(t, err)

	clientNonce := make([]byte, 32)
	for i := range clientNonce {
		clientNonce[i] = byte(i)
	}
	mac := hmac.New(sha256.New, validKey)
	_, _ = mac.Write([]byte("kbcore-Auth-v1"))
	_, _ = mac.Write(clientNonce)
	clientAuth := mac.Sum(nil)

	validHandshake := append([]byte(auth.HandshakeMagic), clientNonce...)
	validHandshake = append(validHandshake, clientAuth...)

	testCases := []struct {
		name        string
		reader      *bufio.Reader
		writer      io.Writer
		key         []byte
		expectedErr error
	}{
		{
			name:   "Successful Handshake",
			reader: bufio.NewReader(bytes.NewBuffer(validHandshake)),
			writer: bytes.NewBuffer(nil),
			key:    validKey,
		},
		{
			name:        "Err reading client nonce",
			reader:      bufio.NewReader(bytes.NewBuffer(append([]byte(auth.HandshakeMagic), []byte("short")...))),
			writer:      bytes.NewBuffer(nil),
			key:         validKey,
			expectedErr: fmt.Errorf("read client nonce: unexpected EOF"),
		},
		{
			name:        "Err writing server handshake",
			reader:      bufio.NewReader(bytes.NewBuffer(validHandshake)),
			writer:      nil,
			key:         validKey,
			expectedErr: fmt.Errorf("write response: write on nil pointer"),
		},
		{
			name:        "Err discarding handshake magic",
			reader:      bufio.NewReader(bytes.NewBuffer([]byte("sh"))),
			writer:      bytes.NewBuffer(nil),
			key:         validKey,
			expectedErr: fmt.Errorf("discard handshake magic: EOF"),
		},
		{
			name:        "Err invalid key",
			reader:      bufio.NewReader(bytes.NewBuffer(validHandshake)),
			writer:      bytes.NewBuffer(nil),
			key:         wrongKey,
			expectedErr: auth.ErrUnauthorized("invalid key"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clientNonce, serverNonce, err := auth.HandleAuthHandshake(tc.reader, tc.writer, tc.key, false)
			if tc.expectedErr != nil {
				assert.EqualError(t, err, tc.expectedErr.Error())
				return
			}
			assert.NoError(t, err)
			assert.Len(t, clientNonce, 32)
			assert.Len(t, serverNonce, 32)
		})
	}
}
