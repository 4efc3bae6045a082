package constants

import "time"

const (
	// PipelineID is the value written to the producedBy metadata key on
	// every derivative the pipeline uploads. The eligibility filter skips
	// any object carrying this marker, so the pipeline never reprocesses
	// its own output.
	PipelineID = "media-ingest-pipeline"

	// IngestPrefix is the object-path prefix under which uploads are
	// eligible for processing.
	IngestPrefix = "events/"

	// DerivativeSuffix is appended to the original's stem to form the
	// derivative key: events/<stem>_compressed.mp4
	DerivativeSuffix = "_compressed"
)

// Derivative object metadata keys.
const (
	MetaCompressed      = "compressed"
	MetaCompressionDate = "compressionDate"
	MetaCompressedSize  = "compressedSize"
	MetaOriginalFile    = "originalFile"
	MetaOriginalSize    = "originalSize"
	MetaProducedBy      = "producedBy"
)

// Document store collections. Both are keyed by the correlation key
// extracted from the upload path.
const (
	PendingEventCollection = "pending-events"
	LiveEventCollection    = "events"
)

// NSQ topic and channel for upload notifications.
const (
	TopicMediaIngest   = "media_ingest"
	ChannelMediaIngest = "process"
)

// Eligibility reason codes. These are observability values, not errors.
const (
	ReasonEligible             = "eligible"
	ReasonNotIngestPrefix      = "not_ingest_prefix"
	ReasonUnsupportedExtension = "unsupported_extension"
	ReasonDerivativeSuffix     = "derivative_suffix"
	ReasonAlreadyCompressed    = "already_compressed"
	ReasonBelowMinSize         = "below_min_size"
	ReasonObjectGone           = "object_gone"
)

// Promotion steps, in the only order the coordinator may execute them.
const (
	StepDownloaded         = "Downloaded"
	StepEncoded            = "Encoded"
	StepDerivativeUploaded = "DerivativeUploaded"
	StepLiveWritten        = "LiveWritten"
	StepPendingDeleted     = "PendingDeleted"
	StepOriginalDeleted    = "OriginalDeleted"
)

// VideoExtensions lists the file extensions the pipeline will transcode.
var VideoExtensions = []string{
	".mp4",
	".mov",
	".m4v",
	".avi",
	".webm",
}

// Transcode profile. These are policy constants, not runtime settings:
// one fixed single-pass profile for every asset.
const (
	VideoCodec        = "libx264"
	AudioCodec        = "aac"
	AudioBitrate      = "128k"
	VideoBitrateCap   = "1000k"
	VideoCRF          = 28
	EncoderPreset     = "fast"
	MaxFrameRate      = 30
	MaxWidth          = 1280
	MaxHeight         = 720
	OutputExtension   = ".mp4"
	OutputContentType = "video/mp4"
)

// BeneficialRatio is the compression gate: an encode counts as
// beneficial only if the output is at most this fraction of the
// original's size.
const BeneficialRatio = 0.9

// DefaultInvocationTimeout bounds one invocation end to end. The
// encoder can stall on malformed input, so the bound must cover the
// transcode.
const DefaultInvocationTimeout = 15 * time.Minute
