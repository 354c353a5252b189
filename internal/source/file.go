package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
)

// FileReader reads sources from the local filesystem.
type FileReader struct {
	opts Options
}

func NewFileReader(opts Options) *FileReader {
	return &FileReader{opts: opts.withDefaults()}
}

func (r *FileReader) ReadFullText(ctx context.Context, path string) (string, error) {
	return run(ctx, r.opts, path, func(ctx context.Context) (string, error) {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()

		var buf bytes.Buffer
		n, err := io.Copy(&buf, io.LimitReader(f, r.opts.MaxSize+1))
		if err != nil {
			return "", err
		}
		if n > r.opts.MaxSize {
			return "", tooLarge(r.opts.MaxSize)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return decode(buf.Bytes()), nil
	})
}

func (r *FileReader) Stat(ctx context.Context, path string) (sanitizer.FileDescriptor, error) {
	return run(ctx, r.opts, path, func(context.Context) (sanitizer.FileDescriptor, error) {
		info, err := os.Stat(path)
		if err != nil {
			return sanitizer.FileDescriptor{}, err
		}
		if info.IsDir() {
			return sanitizer.FileDescriptor{}, fmt.Errorf("%s is a directory", path)
		}
		return sanitizer.FileDescriptor{
			Name:     filepath.Base(path),
			Size:     info.Size(),
			MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		}, nil
	})
}
