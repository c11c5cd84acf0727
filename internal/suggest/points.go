// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package suggest

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

//go:embed pointdata
var defaultPointData embed.FS

// PointSource resolves a rating value to its ordered propagation point list.
// Index i of the returned slice is the point value for the related movie at
// priority rank i.
type PointSource interface {
	Points(rating float64) ([]int, error)
}

// FSPointSource reads point tables from a filesystem, one file per supported
// rating value. The file for rating r is named "<key>.txt" where key is r's
// trimmed decimal form ("4", "4.5"), and holds one non-negative integer per
// line, top entry first.
//
// Tables are loaded lazily and never cached: they are small, reads are rare
// relative to scoring work, and skipping the cache keeps hot-reload of table
// files trivial in development.
type FSPointSource struct {
	fsys fs.FS
}

// NewFSPointSource creates a point source over the given filesystem.
func NewFSPointSource(fsys fs.FS) *FSPointSource {
	return &FSPointSource{fsys: fsys}
}

// DefaultPointSource returns a point source over the tables embedded in the
// binary, covering every half-step rating from 0 to 5.
func DefaultPointSource() *FSPointSource {
	sub, err := fs.Sub(defaultPointData, "pointdata")
	if err != nil {
		// The embedded directory is part of the build; a missing subtree is
		// unreachable short of a corrupted binary.
		panic(fmt.Sprintf("suggest: embedded point data missing: %v", err))
	}
	return NewFSPointSource(sub)
}

// RatingKey returns the table key for a rating value: its decimal form with
// trailing zeros trimmed, e.g. 4 -> "4", 4.5 -> "4.5".
func RatingKey(rating float64) string {
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

// Points implements PointSource. It returns ErrRatingTableNotFound when no
// table file exists for the rating.
func (s *FSPointSource) Points(rating float64) ([]int, error) {
	name := RatingKey(rating) + ".txt"

	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w %s", ErrRatingTableNotFound, RatingKey(rating))
	}
	defer f.Close()

	var points []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("point table %s: bad entry %q", name, line)
		}
		points = append(points, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("point table %s: %w", name, err)
	}

	return points, nil
}

// ValidRating reports whether the rating is on the supported scale: a
// half-step value between 0 and 5 inclusive. The engine rejects everything
// else before any table lookup, so arbitrary floats never reach the point
// source.
func ValidRating(rating float64) bool {
	if rating < 0 || rating > 5 {
		return false
	}
	doubled := rating * 2
	return doubled == float64(int(doubled))
}
