// Package device provides the device profile injected verbatim into
// configure payloads.
package device

import (
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/google/uuid"
)

// Profile holds the manufacturer/model/OS strings the configure endpoints
// expect in their "device" field.
type Profile struct {
	Manufacturer   string `json:"manufacturer"`
	Model          string `json:"model"`
	AndroidVersion int    `json:"android_version"`
	AndroidRelease string `json:"android_release"`
}

// DefaultProfile returns a generic handset profile.
func DefaultProfile() Profile {
	return Profile{
		Manufacturer:   "Xiaomi",
		Model:          "HM 1SW",
		AndroidVersion: 18,
		AndroidRelease: "4.3",
	}
}

// FromEnv builds a profile from MEDIAPOST_DEVICE_* variables, falling back
// to the default profile for any that are unset.
func FromEnv(envRepo env.Repository) Profile {
	profile := DefaultProfile()
	if v := envRepo.Get("MEDIAPOST_DEVICE_MANUFACTURER"); v != "" {
		profile.Manufacturer = v
	}
	if v := envRepo.Get("MEDIAPOST_DEVICE_MODEL"); v != "" {
		profile.Model = v
	}
	if v := envRepo.Get("MEDIAPOST_DEVICE_ANDROID_RELEASE"); v != "" {
		profile.AndroidRelease = v
	}
	return profile
}

// NewDeviceUUID returns a fresh identifier for a device-scoped session.
func NewDeviceUUID() string {
	return uuid.NewString()
}
