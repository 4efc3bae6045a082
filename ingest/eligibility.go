package ingest

import (
	"path"
	"strings"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/models/service"
	"github.com/citypulse/media-services/util"
	"github.com/minio/minio-go/v7"
)

// Decision is the eligibility filter's answer for one upload. Reason
// is a constants.Reason* code for the logs; a skip is never an error.
type Decision struct {
	Proceed bool
	Reason  string
}

func skip(reason string) Decision {
	return Decision{Proceed: false, Reason: reason}
}

// CheckEligibility decides whether an uploaded object needs processing
// at all. Rules run in order and short-circuit on first match:
//
//  1. not under the ingest prefix
//  2. extension not in the supported video set
//  3. path carries the derivative suffix
//  4. object metadata carries the pipeline's producedBy marker
//  5. object smaller than the minimum size worth compressing
//
// Pure decision function over the notification plus freshly fetched
// object metadata. No side effects.
func CheckEligibility(n *service.UploadNotification, info minio.ObjectInfo, minSizeToCompress int64) Decision {
	if !strings.HasPrefix(n.ObjectPath, constants.IngestPrefix) {
		return skip(constants.ReasonNotIngestPrefix)
	}
	ext := strings.ToLower(path.Ext(n.ObjectPath))
	if !util.StringListContains(constants.VideoExtensions, ext) {
		return skip(constants.ReasonUnsupportedExtension)
	}
	if strings.HasSuffix(util.PathStem(n.ObjectPath), constants.DerivativeSuffix) {
		return skip(constants.ReasonDerivativeSuffix)
	}
	if metadataValue(info, constants.MetaProducedBy) != "" {
		return skip(constants.ReasonAlreadyCompressed)
	}
	if n.SizeBytes < minSizeToCompress {
		return skip(constants.ReasonBelowMinSize)
	}
	return Decision{Proceed: true, Reason: constants.ReasonEligible}
}

// metadataValue looks up a user metadata key case-insensitively.
// S3 backends canonicalize X-Amz-Meta header names, so the key we
// wrote as producedBy can come back as Producedby.
func metadataValue(info minio.ObjectInfo, key string) string {
	for k, v := range info.UserMetadata {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
