package story

import (
	"errors"
	"strings"
	"time"
)

// MaxPhotoSize is the largest photo the story API accepts.
const MaxPhotoSize = 1 << 20

var (
	// ErrNotFound is returned when a story does not exist remotely or in
	// the offline store.
	ErrNotFound = errors.New("story: not found")

	// ErrEmptyDescription is returned for submissions without text.
	ErrEmptyDescription = errors.New("story: description is required")

	// ErrMissingPhoto is returned for submissions without a photo.
	ErrMissingPhoto = errors.New("story: photo is required")

	// ErrPhotoTooLarge is returned for photos over MaxPhotoSize.
	ErrPhotoTooLarge = errors.New("story: photo exceeds 1MB")

	// ErrInvalidCoordinates is returned for out-of-range lat/lon.
	ErrInvalidCoordinates = errors.New("story: coordinates out of range")
)

// Story is a published story.
type Story struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
}

// HasLocation reports whether the story carries coordinates.
func (s Story) HasLocation() bool {
	return s.Lat != nil && s.Lon != nil
}

// NewStory is a submission.
type NewStory struct {
	Description string   `json:"description"`
	Photo       []byte   `json:"photo"`
	PhotoName   string   `json:"photoName"`
	ContentType string   `json:"contentType"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// Validate checks a submission before it is sent or queued.
func (n NewStory) Validate() error {
	if strings.TrimSpace(n.Description) == "" {
		return ErrEmptyDescription
	}
	if len(n.Photo) == 0 {
		return ErrMissingPhoto
	}
	if len(n.Photo) > MaxPhotoSize {
		return ErrPhotoTooLarge
	}
	if (n.Lat == nil) != (n.Lon == nil) {
		return ErrInvalidCoordinates
	}
	if n.Lat != nil && !ValidCoordinates(*n.Lat, *n.Lon) {
		return ErrInvalidCoordinates
	}
	return nil
}

// ValidCoordinates reports whether lat and lon are finite and within the
// ranges of a geographic position.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Pending is a submission waiting in the offline queue.
type Pending struct {
	ID        string    `json:"id"`
	Story     NewStory  `json:"story"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListOptions selects a page of stories.
type ListOptions struct {
	Page         int
	Size         int
	WithLocation bool
}

// DefaultListOptions is what the home page requests.
var DefaultListOptions = ListOptions{Page: 1, Size: 20, WithLocation: true}
