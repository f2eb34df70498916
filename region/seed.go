// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
	Nodes       []Node    `json:"nodes"`
}

// ExportToJSON writes every stored node to a JSON file, sorted by level then
// code to keep diffs small.
func ExportToJSON(ctx context.Context, repo *SQLRepository, filepath string) (int, error) {
	nodes, err := repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing nodes: %w", err)
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now(),
		Nodes:       nodes,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(nodes), nil
}

// ReadJSON reads the nodes of a seed file.
func ReadJSON(filepath string) ([]Node, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	return seed.Nodes, nil
}

// SeedIfEmpty seeds the repository from a JSON file if it holds no nodes.
func SeedIfEmpty(ctx context.Context, repo *SQLRepository, filepath string) (bool, int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("counting nodes: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}

	if _, err := os.Stat(filepath); errors.Is(err, os.ErrNotExist) {
		// No seed file exists, that's okay
		return false, 0, nil
	}

	nodes, err := ReadJSON(filepath)
	if err != nil {
		return false, 0, err
	}

	imported, err := repo.Import(ctx, nodes, nil)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
