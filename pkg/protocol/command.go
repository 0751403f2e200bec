package protocol

import "strings"

// CommandKind discriminates the parsed form of one input line.
type CommandKind int

const (
	CmdPlainMessage CommandKind = iota // unprefixed chat text
	CmdTranslate                       // /translate <lang> <text>
	CmdPrivate                         // /private <recipient> <text>
	CmdSetStatus                       // /status <text>
	CmdToggleEncryption                // /encrypt
	CmdStartAudio                      // /audio
	CmdExit                            // "exit" (case-insensitive)
	CmdUsageError                      // malformed slash command
)

// Command is the parsed form of one input line. It is transient and carries
// no reference to shared state.
type Command struct {
	Kind      CommandKind
	Text      string // message body for PlainMessage, Translate, Private, SetStatus
	Lang      string // target language code for Translate
	Recipient string // recipient username for Private
	Usage     string // usage hint for UsageError
}

// ParseCommand interprets one line of client input. It is a pure function:
// it never touches shared state and cannot fail, at worst yielding a
// UsageError command that the caller renders locally.
func ParseCommand(line string) Command {
	if strings.EqualFold(strings.TrimSpace(line), "exit") {
		return Command{Kind: CmdExit}
	}
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CmdPlainMessage, Text: line}
	}

	switch {
	case strings.HasPrefix(line, "/translate"):
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return usageError("/translate [target language] [message]")
		}
		return Command{Kind: CmdTranslate, Lang: parts[1], Text: parts[2]}

	case strings.HasPrefix(line, "/private"):
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return usageError("/private [username] [message]")
		}
		return Command{Kind: CmdPrivate, Recipient: parts[1], Text: parts[2]}

	case strings.HasPrefix(line, "/status"):
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			return usageError("/status [status]")
		}
		return Command{Kind: CmdSetStatus, Text: strings.Fields(parts[1])[0]}

	case strings.HasPrefix(line, "/encrypt"):
		// Any argument ("on"/"off") is accepted but the command is a toggle.
		return Command{Kind: CmdToggleEncryption}

	case strings.HasPrefix(line, "/audio"):
		return Command{Kind: CmdStartAudio}

	default:
		return usageError("unknown command; available: /translate /private /status /encrypt /audio")
	}
}

func usageError(hint string) Command {
	return Command{Kind: CmdUsageError, Usage: "Usage: " + hint}
}
