package transmux

import (
	"encoding/binary"
	"fmt"
)

// Box is one top-level ISO BMFF box located inside a byte slice
type Box struct {
	Type   string
	Offset int
	Size   int
}

// ReadBoxes walks the top-level boxes of an MP4 byte stream
func ReadBoxes(data []byte) ([]Box, error) {
	var boxes []Box

	for offset := 0; offset < len(data); {
		remaining := len(data) - offset
		if remaining < 8 {
			return boxes, fmt.Errorf("truncated box header at offset %d", offset)
		}

		size := int(binary.BigEndian.Uint32(data[offset:]))
		boxType := string(data[offset+4 : offset+8])
		header := 8

		switch size {
		case 0:
			size = remaining
		case 1:
			if remaining < 16 {
				return boxes, fmt.Errorf("truncated largesize header for %q at offset %d", boxType, offset)
			}
			large := binary.BigEndian.Uint64(data[offset+8:])
			if large > uint64(remaining) {
				return boxes, fmt.Errorf("box %q at offset %d overruns data", boxType, offset)
			}
			size = int(large)
			header = 16
		}

		if size < header || size > remaining {
			return boxes, fmt.Errorf("invalid size %d for box %q at offset %d", size, boxType, offset)
		}

		boxes = append(boxes, Box{Type: boxType, Offset: offset, Size: size})
		offset += size
	}

	return boxes, nil
}

// SplitFragmented separates a fragmented MP4 into its initialization part
// (everything before the first moof) and its media fragments
func SplitFragmented(data []byte) (initSegment, media []byte, err error) {
	boxes, err := ReadBoxes(data)
	if err != nil {
		return nil, nil, err
	}
	if len(boxes) == 0 {
		return nil, nil, fmt.Errorf("no MP4 boxes in transmuxer output")
	}

	for _, box := range boxes {
		if box.Type == "moof" {
			return data[:box.Offset], data[box.Offset:], nil
		}
	}

	for _, box := range boxes {
		if box.Type == "moov" {
			return data, nil, nil
		}
	}
	return nil, nil, fmt.Errorf("transmuxer output has neither moov nor moof")
}
