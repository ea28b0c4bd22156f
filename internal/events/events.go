package events

import (
	"fmt"
	"time"
)

// EventType identifies the kind of file operation an event describes.
type EventType string

const (
	EventFileMoved   EventType = "file_moved"
	EventFileDeleted EventType = "file_deleted"
	EventFileCopied  EventType = "file_copied"
)

// Event is a typed notification about a completed file operation.
// Implementations are immutable value objects stamped at creation.
// Publishers emit events only for operations they completed and verified;
// failed or simulated operations never publish.
type Event interface {
	Type() EventType
}

// FileMoved signals that a file left its source location and now lives at
// the destination.
type FileMoved struct {
	Source      string    `json:"source_path"`
	Destination string    `json:"destination_path"`
	Size        int64     `json:"file_size"`
	Healthy     bool      `json:"is_healthy"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewFileMoved validates the operation details and stamps the event.
func NewFileMoved(source, destination string, size int64, healthy bool) (*FileMoved, error) {
	if source == "" {
		return nil, fmt.Errorf("file moved event: source path cannot be empty")
	}
	if destination == "" {
		return nil, fmt.Errorf("file moved event: destination path cannot be empty")
	}
	if size < 0 {
		return nil, fmt.Errorf("file moved event: file size cannot be negative: %d", size)
	}
	return &FileMoved{
		Source:      source,
		Destination: destination,
		Size:        size,
		Healthy:     healthy,
		Timestamp:   time.Now(),
	}, nil
}

func (e *FileMoved) Type() EventType { return EventFileMoved }

// FileDeleted signals that a file was removed from disk.
type FileDeleted struct {
	Path      string    `json:"file_path"`
	Size      int64     `json:"file_size"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFileDeleted validates the operation details and stamps the event.
func NewFileDeleted(path string, size int64) (*FileDeleted, error) {
	if path == "" {
		return nil, fmt.Errorf("file deleted event: file path cannot be empty")
	}
	if size < 0 {
		return nil, fmt.Errorf("file deleted event: file size cannot be negative: %d", size)
	}
	return &FileDeleted{Path: path, Size: size, Timestamp: time.Now()}, nil
}

func (e *FileDeleted) Type() EventType { return EventFileDeleted }

// FileCopied signals that a file was duplicated to a new location with the
// original left in place.
type FileCopied struct {
	Source             string    `json:"source_path"`
	Destination        string    `json:"destination_path"`
	SourceSize         int64     `json:"source_size"`
	DestinationSize    int64     `json:"destination_size"`
	SourceHealthy      bool      `json:"source_healthy"`
	DestinationHealthy bool      `json:"destination_healthy"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewFileCopied validates the operation details and stamps the event.
func NewFileCopied(source, destination string, sourceSize, destinationSize int64, sourceHealthy, destinationHealthy bool) (*FileCopied, error) {
	if source == "" {
		return nil, fmt.Errorf("file copied event: source path cannot be empty")
	}
	if destination == "" {
		return nil, fmt.Errorf("file copied event: destination path cannot be empty")
	}
	if sourceSize < 0 || destinationSize < 0 {
		return nil, fmt.Errorf("file copied event: file sizes cannot be negative: %d, %d", sourceSize, destinationSize)
	}
	return &FileCopied{
		Source:             source,
		Destination:        destination,
		SourceSize:         sourceSize,
		DestinationSize:    destinationSize,
		SourceHealthy:      sourceHealthy,
		DestinationHealthy: destinationHealthy,
		Timestamp:          time.Now(),
	}, nil
}

func (e *FileCopied) Type() EventType { return EventFileCopied }
