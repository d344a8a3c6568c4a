package domain

import "strings"

// SecretRefPrefix marks a configured value that names a secret store key
// instead of holding the secret itself, e.g. "secret:vfs/cookie".
const SecretRefPrefix = "secret:"

// ParseSecretRef returns the secret key when value is a secret reference.
func ParseSecretRef(value string) (string, bool) {
	if !strings.HasPrefix(value, SecretRefPrefix) {
		return "", false
	}

	key := strings.TrimSpace(strings.TrimPrefix(value, SecretRefPrefix))
	return key, key != ""
}
