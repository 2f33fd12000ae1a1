package s3

// UnknownRegion is reported when a bucket's location cannot be read.
const UnknownRegion = "unknown"

// DefaultRegion is what S3 means by an empty location constraint.
const DefaultRegion = "us-east-1"

// FirstPageLimit is the provider's default ListObjectsV2 page size.
const FirstPageLimit = 1000

// SizeReport aggregates the first page of objects in a bucket. Buckets with
// more objects than one page are under-reported; Truncated says so.
type SizeReport struct {
	Bucket    string `json:"bucket"`
	Bytes     int64  `json:"bytes"`
	Objects   int    `json:"object_count"`
	Truncated bool   `json:"truncated"`
}

// Megabytes returns Bytes in MiB.
func (r SizeReport) Megabytes() float64 {
	return float64(r.Bytes) / (1024 * 1024)
}

// Gigabytes returns Bytes in GiB.
func (r SizeReport) Gigabytes() float64 {
	return float64(r.Bytes) / (1024 * 1024 * 1024)
}
