package delivery

import (
	"strings"

	"github.com/hybridz/tgstream/internal/telegram"
)

// Command is a parsed bot command from a message, e.g. "/start foo" becomes
// {Name: "start", Args: "foo"}.
type Command struct {
	Name     string
	Args     string
	UpdateID int64
	Message  *telegram.Message
}

// ParseCommand extracts a leading bot command from msg. It prefers a
// bot_command entity at offset 0 and falls back to a plain "/" prefix when
// the message carries no entities. A "@botname" suffix on the command is
// stripped. Returns ok=false for messages that are not commands.
func ParseCommand(msg *telegram.Message) (Command, bool) {
	if msg == nil || msg.Text == "" {
		return Command{}, false
	}

	var raw, args string
	for _, ent := range msg.Entities {
		if ent.Type != "bot_command" || ent.Offset != 0 {
			continue
		}
		if ent.Length > len(msg.Text) {
			return Command{}, false
		}
		raw = msg.Text[:ent.Length]
		args = strings.TrimSpace(msg.Text[ent.Length:])
		break
	}

	if raw == "" {
		if !strings.HasPrefix(msg.Text, "/") {
			return Command{}, false
		}
		raw, args, _ = strings.Cut(msg.Text, " ")
		args = strings.TrimSpace(args)
	}

	name := strings.TrimPrefix(raw, "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}

	return Command{Name: name, Args: args, Message: msg}, true
}

// SubscribeCommand registers fn for messages carrying the named bot command
// (without the leading slash). It is a filter over the message stream.
func (r *Router) SubscribeCommand(command string, fn func(Command)) *Subscription {
	return r.SubscribeKind(KindMessage, func(t TaggedUpdate) {
		msg, ok := t.Payload.(*telegram.Message)
		if !ok {
			return
		}
		cmd, ok := ParseCommand(msg)
		if !ok || cmd.Name != command {
			return
		}
		cmd.UpdateID = t.ID
		fn(cmd)
	})
}
