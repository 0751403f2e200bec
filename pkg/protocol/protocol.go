// Package protocol defines the wire format of the chat server.
//
// Control and chat traffic is one UTF-8 text line per logical message.
// Binary payloads (audio relay) are carried in explicitly framed segments so
// a payload can never be misread as subsequent text lines:
//
//	[4-byte big-endian length][payload]
//
// A client announces a binary segment with the /audio command and then sends
// exactly one frame. The server relays an announcement line followed by one
// frame to each recipient.
package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	// MaxFrameSize is the maximum binary payload size (1 MiB).
	MaxFrameSize = 1 << 20

	// MaxLineLength is the maximum text line length accepted from a client.
	MaxLineLength = 8192
)

// WriteFrame writes a length-prefixed binary frame to a writer.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("protocol: frame too large: %d bytes", len(payload))
	}

	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(payload))) //nolint:gosec // length bounds-checked above
	if _, err := w.Write(lenBuf); err != nil {
		return fmt.Errorf("protocol: write length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("protocol: write payload: %w", err)
	}
	return nil
}

// ReadFrame reads a length-prefixed binary frame from a reader.
func ReadFrame(r io.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, fmt.Errorf("protocol: read length: %w", err)
	}
	length := binary.BigEndian.Uint32(lenBuf)
	if length > MaxFrameSize {
		return nil, fmt.Errorf("protocol: frame too large: %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("protocol: read payload: %w", err)
	}
	return payload, nil
}

// ReadLine reads one text line (without the trailing newline) from a buffered
// reader, rejecting lines beyond MaxLineLength. The length check applies per
// buffered chunk, so an unterminated stream is cut off at the limit instead
// of accumulating until memory runs out.
func ReadLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > MaxLineLength {
			return "", fmt.Errorf("protocol: line too long: %d bytes", len(line))
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(line), "\r\n"), nil
	}
}
