package registry

import (
	"fmt"
	"strings"
)

func addressKeyPrefix(prefix, addressID string) string {
	return fmt.Sprintf("%s/%s/", strings.TrimRight(prefix, "/"), addressID)
}

func stateKey(prefix, addressID, category string) string {
	return addressKeyPrefix(prefix, addressID) + category
}

// From a full etcd key back to its address and category.
func parseStateKey(prefix, key string) (addressID, category string, ok bool) {
	prefix = strings.TrimRight(prefix, "/")
	path := strings.TrimPrefix(key, prefix)
	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
