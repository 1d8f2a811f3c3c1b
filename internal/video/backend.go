package video

// Backend owns the native encoder resources. Pipeline drives it through
// Open, Prepare, Encode and Flush in that order, and always ends with Close.
type Backend interface {
	Name() string

	// Open opens the codec and the output file and writes the container header.
	Open() error

	// Prepare allocates the reusable output frame and the RGBA to YUV 4:2:0
	// conversion context. It is called once, before the first Encode.
	Prepare() error

	// Encode converts rgba, stamps it with pts, submits it and muxes every
	// packet the encoder has ready. It returns the number of packets written,
	// which may be zero while the encoder buffers.
	Encode(rgba []byte, pts int64) (int, error)

	// Flush drains the encoder, writes the trailer and closes the file.
	Flush() (int, error)

	// Close releases every native resource. It must be safe to call in any
	// state and more than once.
	Close() error
}
