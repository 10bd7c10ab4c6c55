// Package maven maps Maven coordinates (group:artifact:version[:classifier])
// to repository paths and download URLs.
package maven

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCoordinate reports a coordinate with fewer than the three
// mandatory segments.
var ErrInvalidCoordinate = errors.New("invalid maven coordinate")

type CoordinateError struct {
	Input string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("invalid maven coordinate %q (expected group:artifact:version)", e.Input)
}

func (e *CoordinateError) Unwrap() error { return ErrInvalidCoordinate }

type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
}

// Parse splits a coordinate on ':'. A fourth segment, when present, is the
// classifier. Extra segments beyond four are rejected.
func Parse(coord string) (Coordinate, error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, &CoordinateError{Input: coord}
	}
	for _, p := range parts[:3] {
		if p == "" {
			return Coordinate{}, &CoordinateError{Input: coord}
		}
	}

	c := Coordinate{
		Group:    parts[0],
		Artifact: parts[1],
		Version:  parts[2],
	}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

func (c Coordinate) String() string {
	if c.Classifier != "" {
		return c.Group + ":" + c.Artifact + ":" + c.Version + ":" + c.Classifier
	}
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// FileName is artifact-version[-classifier].jar.
func (c Coordinate) FileName() string {
	if c.Classifier != "" {
		return fmt.Sprintf("%s-%s-%s.jar", c.Artifact, c.Version, c.Classifier)
	}
	return fmt.Sprintf("%s-%s.jar", c.Artifact, c.Version)
}

// RelPath is the slash-separated repository path: group dots become
// directories, then artifact/version/filename. Callers working on disk
// convert with filepath.FromSlash.
func (c Coordinate) RelPath() string {
	groupPath := strings.ReplaceAll(c.Group, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s", groupPath, c.Artifact, c.Version, c.FileName())
}

// URL joins RelPath onto a repository base, tolerating a trailing slash on
// the base.
func (c Coordinate) URL(base string) string {
	return strings.TrimSuffix(base, "/") + "/" + c.RelPath()
}
