package protocol

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		[]byte("small payload"),
		bytes.Repeat([]byte{0xAB}, 64*1024),
	}

	for _, payload := range payloads {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame(%d bytes): %v", len(payload), err)
		}
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d bytes): %v", len(payload), err)
		}
		if !bytes.Equal(payload, got) {
			t.Fatalf("frame round trip mismatch: wrote %d bytes, read %d", len(payload), len(got))
		}
	}
}

func TestWriteFrameRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, make([]byte, MaxFrameSize+1)); err == nil {
		t.Fatal("WriteFrame accepted oversized payload")
	}
	if buf.Len() != 0 {
		t.Fatalf("WriteFrame wrote %d bytes before rejecting", buf.Len())
	}
}

func TestReadFrameRejectsOversizeHeader(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, MaxFrameSize+1)
	buf.Write(lenBuf)

	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("ReadFrame accepted oversized length header")
	}
}

func TestFrameFollowedByTextLine(t *testing.T) {
	// A framed payload must not swallow the text line that follows it.
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("binary\ndata\nwith\nnewlines")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	buf.WriteString("next command\n")

	r := bufio.NewReader(&buf)
	if _, err := ReadFrame(r); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	line, err := ReadLine(r)
	if err != nil {
		t.Fatalf("ReadLine after frame: %v", err)
	}
	if line != "next command" {
		t.Fatalf("ReadLine = %q, want %q", line, "next command")
	}
}

// endlessReader yields the same byte forever, never a newline.
type endlessReader struct{ b byte }

func (e endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = e.b
	}
	return len(p), nil
}

func TestReadLineBoundsUnterminatedStream(t *testing.T) {
	r := bufio.NewReader(endlessReader{'a'})
	_, err := ReadLine(r)
	if err == nil || !strings.Contains(err.Error(), "line too long") {
		t.Fatalf("ReadLine = %v, want line-too-long error", err)
	}
}

func TestReadLineAcceptsMaxLengthLine(t *testing.T) {
	payload := strings.Repeat("a", MaxLineLength-1)
	r := bufio.NewReader(strings.NewReader(payload + "\n"))
	line, err := ReadLine(r)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != payload {
		t.Fatalf("ReadLine returned %d bytes, want %d", len(line), len(payload))
	}
}

func TestReadLineStripsCRLF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("hello\r\n"))
	line, err := ReadLine(r)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "hello" {
		t.Fatalf("ReadLine = %q, want %q", line, "hello")
	}
}
