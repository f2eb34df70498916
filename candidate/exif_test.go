// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package candidate

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    [4]byte
}

// gpsTIFF builds a minimal little-endian TIFF whose only content is a GPS IFD
// with the given degree/minute/second triples.
func gpsTIFF(latRef string, lat [3][2]uint32, lngRef string, lng [3][2]uint32) []byte {
	const (
		ifd0Offset = 8
		gpsOffset  = ifd0Offset + 2 + 12 + 4
		dataOffset = gpsOffset + 2 + 4*12 + 4
	)

	le := binary.LittleEndian
	buf := &bytes.Buffer{}

	write := func(v any) {
		if err := binary.Write(buf, le, v); err != nil {
			panic(err)
		}
	}

	u32 := func(v uint32) [4]byte {
		var b [4]byte
		le.PutUint32(b[:], v)

		return b
	}

	ascii := func(s string) [4]byte {
		var b [4]byte
		copy(b[:], s)

		return b
	}

	buf.WriteString("II")
	write(uint16(42))
	write(uint32(ifd0Offset))

	// IFD0: GPSInfo pointer only.
	write(uint16(1))
	write(ifdEntry{0x8825, 4, 1, u32(gpsOffset)})
	write(uint32(0))

	// GPS IFD.
	write(uint16(4))
	write(ifdEntry{1, 2, 2, ascii(latRef)})
	write(ifdEntry{2, 5, 3, u32(dataOffset)})
	write(ifdEntry{3, 2, 2, ascii(lngRef)})
	write(ifdEntry{4, 5, 3, u32(dataOffset + 24)})
	write(uint32(0))

	for _, r := range lat {
		write(r)
	}

	for _, r := range lng {
		write(r)
	}

	return buf.Bytes()
}

func TestEXIFExtract(t *testing.T) {
	// 7°15'26.899"S 112°45'7.517"E, Jalan Tunjungan in Surabaya.
	photo := gpsTIFF(
		"S", [3][2]uint32{{7, 1}, {15, 1}, {26899, 1000}},
		"E", [3][2]uint32{{112, 1}, {45, 1}, {7517, 1000}},
	)

	c, err := EXIFExtractor{}.Extract(context.Background(), bytes.NewReader(photo))
	require.NoError(t, err)
	require.NotNil(t, c.Coordinates)

	assert.Equal(t, SourceEXIF, c.Source)
	assert.InDelta(t, -7.257472, c.Coordinates.Lat, 1e-5)
	assert.InDelta(t, 112.752088, c.Coordinates.Lng, 1e-5)
	assert.False(t, c.CapturedAt.IsZero())
}

func TestEXIFExtractNoGPS(t *testing.T) {
	tests := []struct {
		name  string
		photo []byte
	}{
		{"not an image", []byte("definitely not a photo")},
		{"empty", nil},
		{
			name: "null island",
			photo: gpsTIFF(
				"N", [3][2]uint32{{0, 1}, {0, 1}, {0, 1}},
				"E", [3][2]uint32{{0, 1}, {0, 1}, {0, 1}},
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EXIFExtractor{}.Extract(context.Background(), bytes.NewReader(tt.photo))
			assert.ErrorIs(t, err, ErrNoGPSData)
		})
	}
}

func TestEXIFExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never yields keeps the decoder blocked.
	r := &blockingReader{release: make(chan struct{})}
	defer close(r.release)

	_, err := EXIFExtractor{}.Extract(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingReader struct {
	release chan struct{}
}

func (b *blockingReader) Read([]byte) (int, error) {
	<-b.release

	return 0, io.EOF
}
