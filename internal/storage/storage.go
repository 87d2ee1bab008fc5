package storage

import (
	"context"
	"errors"
)

var (
	ErrEmptyFile = errors.New("пустые данные файла")
	ErrNotImage  = errors.New("файл не является изображением")
)

type FileStorage interface {
	// UploadFile stores an image and returns its public URL.
	UploadFile(ctx context.Context, data []byte, filename string) (string, error)

	DeleteFile(ctx context.Context, fileURL string) error
}
