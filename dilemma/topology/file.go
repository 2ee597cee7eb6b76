package topology

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blueskinlizard/EvoDilemma/dilemma"
)

// The edge file is a JSON array of [a, b] index pairs, e.g. [[0, 1], [0, 99]].
// It is the format the visualization front end loads, so the same file can feed both.
// Paths ending in ".gz" are gzip-compressed.

// SaveEdges writes edges to filePath.
func SaveEdges(filePath string, edges []dilemma.Edge) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create edges file '%s': %w", filePath, err)
	}
	defer file.Close()

	var w io.Writer = file
	if strings.HasSuffix(filePath, ".gz") {
		gzWriter := gzip.NewWriter(file)
		defer gzWriter.Close()
		w = gzWriter
	}

	pairs := make([][2]int, len(edges))
	for i, e := range edges {
		pairs[i] = [2]int{e.A, e.B}
	}
	if err := json.NewEncoder(w).Encode(pairs); err != nil {
		return fmt.Errorf("failed to encode edges: %w", err)
	}
	return nil
}

// LoadEdges reads an edge list written by SaveEdges (or any tool emitting the same format).
func LoadEdges(filePath string) ([]dilemma.Edge, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open edges file '%s': %w", filePath, err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(filePath, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for edges: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	var pairs [][]int
	if err := json.NewDecoder(r).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("failed to decode edges from '%s': %w", filePath, err)
	}
	edges := make([]dilemma.Edge, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: edge %d has %d endpoints", dilemma.ErrValidation, i, len(p))
		}
		edges[i] = dilemma.Edge{A: p[0], B: p[1]}
	}
	return edges, nil
}

// File is a TopologyProvider re-reading an edge file on every request.
type File string

// Edges implements dilemma.TopologyProvider.
func (f File) Edges(ctx context.Context) ([]dilemma.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadEdges(string(f))
}
