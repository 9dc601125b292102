// Package fingerprint derives deterministic identities for run inputs
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Fields creates a deterministic fingerprint of a flat field map by
// hashing the sorted key=value sequence.
func Fields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var canonical strings.Builder
	for _, k := range keys {
		canonical.WriteString(strconv.Quote(k))
		canonical.WriteByte('=')
		canonical.WriteString(strconv.Quote(fields[k]))
		canonical.WriteByte(';')
	}

	hash := sha256.Sum256([]byte(canonical.String()))
	return hex.EncodeToString(hash[:])
}

// Run fingerprints a linkage run configuration: the dataset name, the
// blocking and similarity field lists, and the threshold. Two runs with
// the same fingerprint saw the same configuration.
func Run(dataset string, blockingFields, similarityFields []string, threshold float64) string {
	return Fields(map[string]string{
		"dataset":    dataset,
		"blocking":   strings.Join(blockingFields, ","),
		"similarity": strings.Join(similarityFields, ","),
		"threshold":  strconv.FormatFloat(threshold, 'g', -1, 64),
	})
}
