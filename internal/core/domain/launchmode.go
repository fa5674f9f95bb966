package domain

import "fmt"

// LaunchMode tells how the surrounding process was started.
type LaunchMode string

const (
	// LaunchModeDevelopment is the interactive dev loop. Containers started in
	// this mode carry the discovery label and may be shared.
	LaunchModeDevelopment LaunchMode = "development"
	// LaunchModeTest is a one-shot test run.
	LaunchModeTest LaunchMode = "test"
	// LaunchModeNormal is a production run. No dev service is started.
	LaunchModeNormal LaunchMode = "normal"
)

// ParseLaunchMode accepts the lower case mode names; an empty string means
// development.
func ParseLaunchMode(s string) (LaunchMode, error) {
	switch LaunchMode(s) {
	case "", LaunchModeDevelopment:
		return LaunchModeDevelopment, nil
	case LaunchModeTest, LaunchModeNormal:
		return LaunchMode(s), nil
	default:
		return "", fmt.Errorf("unknown launch mode %q", s)
	}
}

func (m LaunchMode) IsDevelopment() bool {
	return m == LaunchModeDevelopment
}
