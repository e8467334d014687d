package network

import (
	"fmt"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/google/uuid"
)

// SessionConfig carries the ambient request values injected into every API
// call: base URL, identity tokens and the body-signing key. Obtaining and
// refreshing these values (login, cookies) is the caller's concern; this
// package treats them as read-only.
type SessionConfig struct {
	APIBaseURL    string
	UserAgent     string
	DeviceUUID    string
	CSRFToken     string
	AccountID     string
	SignatureKey  string
	SigKeyVersion string
}

const defaultUserAgent = "Instagram 10.26.0 Android (18/4.3; 320dpi; 720x1280; Xiaomi; HM 1SW; armani; qcom; en_US)"

// SessionFromEnv reads the session values from the environment.
func SessionFromEnv(envRepo env.Repository) (SessionConfig, error) {
	apiBaseURL := envRepo.Get("MEDIAPOST_API_URL")
	if apiBaseURL == "" {
		return SessionConfig{}, fmt.Errorf("the variable 'MEDIAPOST_API_URL' is not defined")
	}
	csrfToken := envRepo.Get("MEDIAPOST_CSRF_TOKEN")
	if csrfToken == "" {
		return SessionConfig{}, fmt.Errorf("the variable 'MEDIAPOST_CSRF_TOKEN' is not defined")
	}
	accountID := envRepo.Get("MEDIAPOST_ACCOUNT_ID")
	if accountID == "" {
		return SessionConfig{}, fmt.Errorf("the variable 'MEDIAPOST_ACCOUNT_ID' is not defined")
	}

	config := SessionConfig{
		APIBaseURL:    apiBaseURL,
		UserAgent:     envRepo.Get("MEDIAPOST_USER_AGENT"),
		DeviceUUID:    envRepo.Get("MEDIAPOST_DEVICE_UUID"),
		CSRFToken:     csrfToken,
		AccountID:     accountID,
		SignatureKey:  envRepo.Get("MEDIAPOST_SIGNATURE_KEY"),
		SigKeyVersion: envRepo.Get("MEDIAPOST_SIG_KEY_VERSION"),
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.DeviceUUID == "" {
		config.DeviceUUID = uuid.NewString()
	}
	if config.SigKeyVersion == "" {
		config.SigKeyVersion = "4"
	}

	return config, nil
}
