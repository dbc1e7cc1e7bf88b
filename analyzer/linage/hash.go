package linage

import (
	"strconv"

	"github.com/minio/highwayhash"
	"gopkg.in/yaml.v3"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash returns a 64-bit highwayhash of data
func Hash(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

// Fingerprint returns a stable hash of the normalized tables.
// Parsing the same document twice yields the same fingerprint.
func (t *Tables) Fingerprint() (string, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return "", err
	}
	sum, err := Hash(data)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(sum, 16), nil
}
