package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Component records the component marker under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Root records the validation root identifier under the key "root".
func Root(id string) slog.Attr {
	return slog.String("root", id)
}

// Field records a unit key under the key "field".
func Field(key string) slog.Attr {
	return slog.String("field", key)
}

// Rule records a rule name under the key "rule".
func Rule(name string) slog.Attr {
	return slog.String("rule", name)
}

// Tier records the message resolution tier under the key "tier".
func Tier(tier int) slog.Attr {
	return slog.Int("tier", tier)
}

// Event records the event or signal name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Style records an error style name under the key "style".
func Style(name string) slog.Attr {
	return slog.String("style", name)
}

func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// ClientIP records the caller address under the key "client_ip".
func ClientIP(ip string) slog.Attr {
	return slog.String("client_ip", ip)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
