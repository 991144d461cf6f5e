package fcm

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	MessagingScope  = "https://www.googleapis.com/auth/firebase.messaging"
	DefaultTokenURI = "https://oauth2.googleapis.com/token"
	DefaultBaseURL  = "https://fcm.googleapis.com"
)

var ErrMissingCredentials = errors.New("fcm: service account credentials are not configured")

// ServiceAccount is the subset of a Google service-account key file used to
// mint FCM access tokens.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`
}

func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	if len(raw) == 0 {
		return nil, ErrMissingCredentials
	}

	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}

	switch {
	case sa.ProjectID == "":
		return nil, errors.New("parse service account: project_id is empty")
	case sa.ClientEmail == "":
		return nil, errors.New("parse service account: client_email is empty")
	case sa.PrivateKey == "":
		return nil, errors.New("parse service account: private_key is empty")
	}

	if sa.TokenURI == "" {
		sa.TokenURI = DefaultTokenURI
	}

	return &sa, nil
}
