package e2e

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"path"

	"github.com/ayusman/rangoli/internal/detector"
)

// Landmark scripts are .jsonl files: one {"hands":[...]} message per line,
// the wire format /api/landmarks accepts, normalized to an 800x600 frame.
//
//go:embed testdata/landmarks/*.jsonl
var landmarksFS embed.FS

const (
	frameWidth  = 800
	frameHeight = 600
)

// loadMessages returns the raw messages of a script, one per frame.
func loadMessages(name string) ([][]byte, error) {
	data, err := landmarksFS.ReadFile(path.Join("testdata", "landmarks", name+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	var msgs [][]byte
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		msgs = append(msgs, append([]byte(nil), line...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script %s: %w", name, err)
	}
	return msgs, nil
}

// loadFrames decodes a script into the primary hand of each frame; frames
// without a usable hand are nil.
func loadFrames(name string) ([]*detector.HandLandmarks, error) {
	msgs, err := loadMessages(name)
	if err != nil {
		return nil, err
	}

	frames := make([]*detector.HandLandmarks, len(msgs))
	for i, m := range msgs {
		hands, err := detector.ParseHands(m)
		if err != nil {
			return nil, fmt.Errorf("script %s frame %d: %w", name, i, err)
		}
		frames[i] = detector.Primary(hands)
	}
	return frames, nil
}
