package source

import (
	"context"
	"errors"
	"strings"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
)

var errNoObjectStore = errors.New("no object store configured")

// MuxReader sends s3:// sources to the object reader and everything else to
// the file reader.
type MuxReader struct {
	files   Reader
	objects Reader
}

// NewMuxReader accepts a nil objects reader; object sources then fail with a
// ReadError.
func NewMuxReader(files, objects Reader) *MuxReader {
	return &MuxReader{files: files, objects: objects}
}

func (m *MuxReader) pick(src string) (Reader, error) {
	if strings.HasPrefix(src, ObjectScheme) {
		if m.objects == nil {
			return nil, common.NewReadError(src, errNoObjectStore)
		}
		return m.objects, nil
	}
	return m.files, nil
}

func (m *MuxReader) ReadFullText(ctx context.Context, src string) (string, error) {
	r, err := m.pick(src)
	if err != nil {
		return "", err
	}
	return r.ReadFullText(ctx, src)
}

func (m *MuxReader) Stat(ctx context.Context, src string) (sanitizer.FileDescriptor, error) {
	r, err := m.pick(src)
	if err != nil {
		return sanitizer.FileDescriptor{}, err
	}
	return r.Stat(ctx, src)
}
