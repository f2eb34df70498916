// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package region

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/jalanku/jalanku/spatial"
	"golang.org/x/net/html/charset"
)

// codePattern accepts the Kemendagri administrative codes: "35" (province),
// "35.78" (regency/city) and "35.78.01" (district).
var codePattern = regexp.MustCompile(`^\d{2}(\.\d{2}(\.\d{2})?)?$`)

// ParseCode returns the level and parent code encoded in an administrative code.
func ParseCode(code string) (Level, string, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return 0, "", fmt.Errorf("invalid administrative code %q", code)
	}

	i := strings.LastIndexByte(code, '.')
	if i < 0 {
		return LevelProvince, "", nil
	}

	return Level(strings.Count(code, ".") + 1), code[:i], nil
}

// ReadCSV parses the administrative code list. Each record is
// code,name[,lat,lng]; an optional header row is skipped. charsetLabel names
// the file encoding (e.g. "windows-1252"); empty means UTF-8.
func ReadCSV(r io.Reader, charsetLabel string) ([]Node, error) {
	if charsetLabel != "" {
		decoded, err := charset.NewReaderLabel(charsetLabel, r)
		if err != nil {
			return nil, fmt.Errorf("decoding %s input: %w", charsetLabel, err)
		}

		r = decoded
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var nodes []Node

	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if line == 1 && isHeader(record) {
			continue
		}

		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected at least code and name, got %d fields", line, len(record))
		}

		level, parent, err := ParseCode(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		n := Node{
			Level:      level,
			Code:       strings.TrimSpace(record[0]),
			Name:       strings.TrimSpace(record[1]),
			ParentCode: parent,
		}

		if len(record) >= 4 && record[2] != "" && record[3] != "" {
			p, err := parsePoint(record[2], record[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}

			n.Centroid = &p
		}

		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		nodes = append(nodes, n)
	}

	return nodes, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(record[0])) {
	case "code", "kode":
		return true
	}

	return false
}

func parsePoint(lat, lng string) (spatial.Point, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}

	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid longitude %q: %w", lng, err)
	}

	p := spatial.Point{Lat: la, Lng: lo}

	return p, p.Validate()
}
