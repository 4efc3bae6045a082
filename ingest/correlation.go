package ingest

import (
	"strings"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/util"
)

// ExtractCorrelationKey derives the identifier that links an uploaded
// object to the pending record created for it. The upload client names
// files <prefix>_<ts1>[_<ts2>].<ext>, where the optional second
// timestamp disambiguates retried uploads. The pending record was keyed
// with only the first two segments, so the key is always the first two
// underscore-delimited segments of the stem. Legacy clients uploaded
// files with no underscores at all; for those the whole stem is the key.
//
// This is the sole correlation mechanism. There is no secondary index,
// so the key produced here must always equal the key the record was
// created under.
func ExtractCorrelationKey(objectPath string) (string, error) {
	stem := util.PathStem(objectPath)
	if stem == "" || stem == "." || stem == "/" {
		return "", ErrMalformedPath
	}
	parts := strings.Split(stem, "_")
	if len(parts) >= 2 {
		return parts[0] + "_" + parts[1], nil
	}
	return stem, nil
}

// DerivativeKeyFor returns the object key where the compressed
// rendition of originalKey is stored:
// events/<stem>_compressed.mp4
func DerivativeKeyFor(originalKey string) string {
	stem := util.PathStem(originalKey)
	dir := ""
	if idx := strings.LastIndex(originalKey, "/"); idx >= 0 {
		dir = originalKey[:idx+1]
	}
	return dir + stem + constants.DerivativeSuffix + constants.OutputExtension
}
