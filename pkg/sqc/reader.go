package sqc

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Image is a ROM file resident in memory. The bytes are either mapped
// read-only or fully read; in both cases they must not be modified.
type Image struct {
	Path    string
	Data    []byte
	mmapped bool
}

// Open maps a ROM file read-only.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned image must be closed to release any mapping.
//
// Open does not parse the container and accepts files of any length;
// detection and parsing belong to the format drivers.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 {
		return nil, ErrCorruptFile
	}
	if size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, ErrCorruptFile
	}
	size := int(size64)
	if size == 0 {
		// mmap rejects zero-length mappings.
		return &Image{Path: path, Data: []byte{}}, nil
	}

	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		return &Image{Path: path, Data: data, mmapped: true}, nil
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &Image{Path: path, Data: data}, nil
}

// OpenReaderAt loads a ROM from a random-access reader without mmap.
// Like Open it accepts any length; short or foreign data is left for the
// format drivers to classify.
func OpenReaderAt(r io.ReaderAt, size int64) (*Image, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return &Image{Data: data}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrCorruptFile
	}
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Mapped reports whether the image is backed by mmap.
func (img *Image) Mapped() bool {
	return img != nil && img.mmapped
}

// Close releases the image and any mmap backing.
func (img *Image) Close() error {
	if img == nil || img.Data == nil {
		return nil
	}
	var err error
	if img.mmapped {
		err = unix.Munmap(img.Data)
	}
	img.Data = nil
	img.mmapped = false
	return err
}
