//go:build windows

package config

// mapEnvKey lets configs written for Linux hosts use $(HOSTNAME) on Windows.
func mapEnvKey(key string) string {
	if key == "HOSTNAME" {
		return "COMPUTERNAME"
	}
	return key
}
