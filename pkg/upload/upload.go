package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a temp file doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrTypeNotAllowed is returned when the detected type is not allowed.
var ErrTypeNotAllowed = errors.New("upload: file type not allowed")

// Store is the interface for photo storage backends.
type Store interface {
	// Save stores the uploaded file and returns a temp ID.
	Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (tempID string, err error)

	// Claim retrieves and removes a temp file. Closing the returned file
	// releases whatever is left of it.
	Claim(ctx context.Context, tempID string) (*File, error)

	// Cleanup removes temp files older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// File represents an uploaded file.
type File struct {
	// ID is the temp ID.
	ID string

	// Filename is the original filename from the client.
	Filename string

	// ContentType is the detected MIME type.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Reader provides access to the file contents.
	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// ReadAll reads the whole file and closes it.
func (f *File) ReadAll() ([]byte, error) {
	defer f.Close()
	if f.Reader == nil {
		return nil, nil
	}
	return io.ReadAll(f.Reader)
}

// Config holds configuration for the upload handler.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 1MB, the story API's photo limit.
	MaxFileSize int64

	// AllowedTypes lists allowed detected MIME types.
	// Default: JPEG, PNG, GIF and WebP.
	AllowedTypes []string

	// TempExpiry is how long unclaimed files live.
	// Default: 1 hour.
	TempExpiry time.Duration

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the photo defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:  1 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		TempExpiry:   time.Hour,
	}
}

// Handler returns an http.Handler for photo uploads with default settings.
// Mount it on the router: r.Post("/uploads", upload.Handler(store))
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, DefaultConfig())
}

// HandlerWithConfig returns an upload handler with custom configuration.
//
// The handler expects a multipart form with a "photo" field and answers
// JSON with the temp ID:
//
//	{"temp_id": "3f1c..."}
func HandlerWithConfig(store Store, config *Config) http.Handler {
	defaults := DefaultConfig()
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaults.MaxFileSize
	}
	allowed := config.AllowedTypes
	if len(allowed) == 0 {
		allowed = defaults.AllowedTypes
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "upload")

	// Multipart framing overhead on top of the file itself.
	const formOverhead = 64 << 10

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)
		if err := r.ParseMultipartForm(maxSize + formOverhead); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, "No photo provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxSize {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}

		sniff := make([]byte, 512)
		n, err := io.ReadFull(file, sniff)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			http.Error(w, "Failed to read photo", http.StatusBadRequest)
			return
		}
		sniff = sniff[:n]
		contentType := http.DetectContentType(sniff)
		if !typeAllowed(contentType, allowed) {
			logger.Info("upload rejected", "filename", header.Filename, "detected_type", contentType)
			http.Error(w, "File type not allowed", http.StatusUnsupportedMediaType)
			return
		}

		tempID, err := store.Save(r.Context(), header.Filename, contentType, header.Size,
			io.MultiReader(bytes.NewReader(sniff), file))
		if err != nil {
			if errors.Is(err, ErrTooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			logger.Error("upload failed", "filename", header.Filename, "error", err)
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		logger.Debug("photo uploaded", "temp_id", tempID, "size", header.Size, "type", contentType)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"temp_id": tempID})
	})
}

func typeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if t == contentType {
			return true
		}
	}
	return false
}

// generateTempID returns a random temp ID.
func generateTempID() string {
	return uuid.NewString()
}

// validTempID reports whether id could have come from generateTempID.
// It keeps client-supplied IDs from escaping the store's namespace.
func validTempID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
