package pose

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds one JSON-lines record; a 33-point frame is well under 4KB.
const maxLineSize = 1 << 20

// ReadJSONLines reads one Message per line and returns the frames in order.
// Blank lines are skipped. A null landmarks field yields a nil frame.
func ReadJSONLines(r io.Reader) ([]Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var frames []Frame
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		msg, err := DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, msg.Landmarks)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return frames, nil
}

// WriteJSONLines writes each frame as one JSON Message per line.
func WriteJSONLines(w io.Writer, frames []Frame) error {
	bw := bufio.NewWriter(w)
	for i, f := range frames {
		data, err := EncodeJSON(&Message{Landmarks: f})
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		bw.Write(data)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadMsgpackStream reads length-prefixed msgpack Messages
// (4 bytes big-endian length followed by the payload).
func ReadMsgpackStream(r io.Reader) ([]Frame, error) {
	br := bufio.NewReader(r)
	length := make([]byte, 4)

	var frames []Frame
	for {
		if _, err := io.ReadFull(br, length); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return nil, fmt.Errorf("read length: %w", err)
		}

		n := binary.BigEndian.Uint32(length)
		if n > maxLineSize {
			return nil, fmt.Errorf("%w: record of %d bytes exceeds limit", ErrMalformedFrame, n)
		}

		data := make([]byte, n)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(frames), err)
		}

		msg, err := DecodeMsgpack(data)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(frames), err)
		}
		frames = append(frames, msg.Landmarks)
	}
}

// WriteMsgpackStream writes frames as length-prefixed msgpack Messages.
func WriteMsgpackStream(w io.Writer, frames []Frame) error {
	bw := bufio.NewWriter(w)
	length := make([]byte, 4)
	for i, f := range frames {
		data, err := EncodeMsgpack(&Message{Landmarks: f})
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		binary.BigEndian.PutUint32(length, uint32(len(data)))
		bw.Write(length)
		bw.Write(data)
	}
	return bw.Flush()
}

// ReadRecordingFile loads a recording, choosing the format by extension:
// ".msgpack" for length-prefixed msgpack, anything else for JSON lines.
func ReadRecordingFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	if isMsgpack(path) {
		return ReadMsgpackStream(f)
	}
	return ReadJSONLines(f)
}

// WriteRecordingFile saves frames to path in the format implied by its extension.
func WriteRecordingFile(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create recording: %w", err)
	}

	if isMsgpack(path) {
		err = WriteMsgpackStream(f, frames)
	} else {
		err = WriteJSONLines(f, frames)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isMsgpack(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".msgpack")
}
