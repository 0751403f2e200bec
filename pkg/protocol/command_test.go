package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"plain text", "hello everyone", Command{Kind: CmdPlainMessage, Text: "hello everyone"}},
		{"plain with slash inside", "a/b testing", Command{Kind: CmdPlainMessage, Text: "a/b testing"}},
		{"exit lowercase", "exit", Command{Kind: CmdExit}},
		{"exit uppercase", "EXIT", Command{Kind: CmdExit}},
		{"exit mixed case padded", "  Exit ", Command{Kind: CmdExit}},
		{"translate", "/translate fr hello there", Command{Kind: CmdTranslate, Lang: "fr", Text: "hello there"}},
		{"translate missing text", "/translate fr", Command{Kind: CmdUsageError, Usage: "Usage: /translate [target language] [message]"}},
		{"translate bare", "/translate", Command{Kind: CmdUsageError, Usage: "Usage: /translate [target language] [message]"}},
		{"private", "/private bob secret stuff", Command{Kind: CmdPrivate, Recipient: "bob", Text: "secret stuff"}},
		{"private missing message", "/private bob", Command{Kind: CmdUsageError, Usage: "Usage: /private [username] [message]"}},
		{"status", "/status Away", Command{Kind: CmdSetStatus, Text: "Away"}},
		{"status extra words keeps first", "/status Out to lunch", Command{Kind: CmdSetStatus, Text: "Out"}},
		{"status bare", "/status", Command{Kind: CmdUsageError, Usage: "Usage: /status [status]"}},
		{"encrypt bare", "/encrypt", Command{Kind: CmdToggleEncryption}},
		{"encrypt with arg", "/encrypt on", Command{Kind: CmdToggleEncryption}},
		{"audio", "/audio", Command{Kind: CmdStartAudio}},
		{"unknown slash command", "/frobnicate now", Command{Kind: CmdUsageError, Usage: "Usage: unknown command; available: /translate /private /status /encrypt /audio"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommand(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCommand(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}
