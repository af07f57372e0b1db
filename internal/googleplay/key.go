package googleplay

import (
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrInvalidKey is returned when the service account key is malformed.
var ErrInvalidKey = errors.New("invalid google play service key")

// ServiceAccountKey is the JSON key file downloaded for a Google Cloud service account.
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ParseServiceAccountKey decodes a JSON key. client_email and a PEM encoded
// private_key are required; everything else is optional.
func ParseServiceAccountKey(data []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := sonic.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	if strings.TrimSpace(key.ClientEmail) == "" {
		return nil, fmt.Errorf("%w: client_email is empty", ErrInvalidKey)
	}

	if block, _ := pem.Decode([]byte(key.PrivateKey)); block == nil {
		return nil, fmt.Errorf("%w: private_key is not PEM encoded", ErrInvalidKey)
	}

	return &key, nil
}
