// Package env resolves process-wide filesystem locations cabin needs outside
// any single project: the content-addressed cache that holds cloned git
// dependencies.
package env

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// CacheDir returns (creating if necessary) cabin's root cache directory,
// rooted under the user's cache directory.
func CacheDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(userCacheDir, "cabin")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// GitDepDir returns the content-addressed install directory for a git
// dependency identified by its URL and resolved target (rev/tag/branch, or
// "" for the default branch). The same (url, target) pair always maps to
// the same directory, which is what lets the resolver re-use a previous
// clone instead of re-fetching.
func GitDepDir(url, target string) (string, error) {
	cache, err := CacheDir()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(url + "#" + target))
	return filepath.Join(cache, "git", hex.EncodeToString(sum[:])), nil
}
