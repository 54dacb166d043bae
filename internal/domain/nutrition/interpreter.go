package nutrition

import (
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"food-analyzer-go/internal/platform/errors"
	"food-analyzer-go/internal/utils"
)

// ErrEmptyReply marks a model reply that carried no text at all.
var ErrEmptyReply = stderrors.New("model reply has no text")

// ParseFields splits text into lines and collects "key: value" pairs. The key
// is everything before the first colon; later duplicates win; lines without a
// colon are skipped.
func ParseFields(text string) map[string]string {
	fields := make(map[string]string)
	for line := range strings.Lines(text) {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}

// Parse never fails: unknown or missing keys fall back to defaults.
func Parse(text string) Result {
	return FromFields(ParseFields(text))
}

// Interpretation is a parsed reply plus the raw pairs it came from.
type Interpretation struct {
	Result     Result
	Fields     map[string]string
	Structured bool
}

// Interpreter turns model reply text into a Result.
type Interpreter struct {
	format string
	logger *utils.Logger
}

func NewInterpreter(format string, logger *utils.Logger) *Interpreter {
	if format != FormatJSON {
		format = FormatLines
	}
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Interpreter{format: format, logger: logger}
}

func (i *Interpreter) Format() string { return i.format }

// Interpret fails only when the reply has no text. In json format a reply that
// does not decode as an object is parsed as lines instead.
func (i *Interpreter) Interpret(reply string) (*Interpretation, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, errors.Wrap(errors.KindAIResponse, "nutrition.interpret", "no text in model reply", ErrEmptyReply)
	}
	i.logger.DebugTag("Interpreter", "raw model reply: %q", reply)

	if i.format == FormatJSON {
		if fields, ok := decodeJSONFields(reply); ok {
			return &Interpretation{Result: FromFields(fields), Fields: fields, Structured: true}, nil
		}
		i.logger.WarnTag("Interpreter", "reply is not a JSON object, falling back to line parsing")
	}

	fields := ParseFields(reply)
	if !hasAnyKey(fields) {
		i.logger.WarnTag("Interpreter", "reply carried none of the expected keys, returning defaults: %q", truncate(reply, 200))
	}
	return &Interpretation{Result: FromFields(fields), Fields: fields}, nil
}

func decodeJSONFields(reply string) (map[string]string, bool) {
	var raw map[string]interface{}
	if err := sonic.UnmarshalString(stripCodeFence(reply), &raw); err != nil || raw == nil {
		return nil, false
	}
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = strings.TrimSpace(v)
		case float64:
			fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			fields[key] = strconv.FormatBool(v)
		case nil:
		default:
			if encoded, err := sonic.MarshalString(v); err == nil {
				fields[key] = encoded
			}
		}
	}
	return fields, true
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

func hasAnyKey(fields map[string]string) bool {
	for _, key := range Keys {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
