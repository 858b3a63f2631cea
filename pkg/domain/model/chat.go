package model

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

var ErrInvalidChatID = goerr.New("invalid chat id")

// ChatID is a Telegram chat destination: a numeric chat id or a string such as
// "@channelname". The original form is kept so that it is sent back to the Bot
// API unchanged.
type ChatID struct {
	id      int64
	name    string
	numeric bool
}

func NewChatID(id int64) ChatID {
	return ChatID{id: id, numeric: true}
}

func NewChatName(name string) ChatID {
	return ChatID{name: name}
}

// ParseChatID converts a decoded JSON or TOML value into ChatID
func ParseChatID(v any) (ChatID, error) {
	switch x := v.(type) {
	case string:
		if x == "" {
			return ChatID{}, goerr.Wrap(ErrInvalidChatID, "empty chat name")
		}
		return NewChatName(x), nil
	case int64:
		return NewChatID(x), nil
	case int:
		return NewChatID(int64(x)), nil
	case json.Number:
		id, err := x.Int64()
		if err != nil {
			return ChatID{}, goerr.Wrap(ErrInvalidChatID, "chat id is not an integer", goerr.V("value", x.String()))
		}
		return NewChatID(id), nil
	case float64:
		if x != math.Trunc(x) || x >= math.MaxInt64 || x < math.MinInt64 {
			return ChatID{}, goerr.Wrap(ErrInvalidChatID, "chat id is not an integer", goerr.V("value", x))
		}
		return NewChatID(int64(x)), nil
	default:
		return ChatID{}, goerr.Wrap(ErrInvalidChatID, "unsupported chat id type", goerr.V("value", v))
	}
}

func (x ChatID) IsZero() bool {
	return !x.numeric && x.name == ""
}

func (x ChatID) IsNumeric() bool {
	return x.numeric
}

func (x ChatID) String() string {
	if x.numeric {
		return strconv.FormatInt(x.id, 10)
	}
	return x.name
}

func (x ChatID) MarshalJSON() ([]byte, error) {
	if x.numeric {
		return []byte(strconv.FormatInt(x.id, 10)), nil
	}
	return json.Marshal(x.name)
}

func (x *ChatID) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return goerr.Wrap(err, "failed to decode chat id")
	}
	if f, ok := v.(float64); ok {
		// re-parse to keep precision of large ids
		id, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return goerr.Wrap(ErrInvalidChatID, "chat id is not an integer", goerr.V("value", f))
		}
		*x = NewChatID(id)
		return nil
	}

	parsed, err := ParseChatID(v)
	if err != nil {
		return err
	}
	*x = parsed
	return nil
}

// RoutingTable maps a GitLab project id to a Telegram chat. It is built once
// and never modified.
type RoutingTable struct {
	chats map[int64]ChatID
}

// NewRoutingTable creates a RoutingTable from a copy of chats
func NewRoutingTable(chats map[int64]ChatID) *RoutingTable {
	copied := make(map[int64]ChatID, len(chats))
	for k, v := range chats {
		copied[k] = v
	}
	return &RoutingTable{chats: copied}
}

// Lookup returns the chat for projectID
func (x *RoutingTable) Lookup(projectID int64) (ChatID, bool) {
	if x == nil {
		return ChatID{}, false
	}
	chat, ok := x.chats[projectID]
	return chat, ok
}

func (x *RoutingTable) Len() int {
	if x == nil {
		return 0
	}
	return len(x.chats)
}

// SendOptions is the options bag of a Telegram sendMessage call
type SendOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
}

const ParseModeMarkdownV2 = "MarkdownV2"
