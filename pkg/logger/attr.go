package logger

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.String(strconv.Itoa(i), err.Error()))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under the key "error". A nil err yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// OwnerID records the owning account under "owner_id".
func OwnerID(id fmt.Stringer) slog.Attr {
	return identifier("owner_id", id)
}

// UserID records the acting user under "user_id".
func UserID(id fmt.Stringer) slog.Attr {
	return identifier("user_id", id)
}

// MemberID records a team member under "member_id".
func MemberID(id fmt.Stringer) slog.Attr {
	return identifier("member_id", id)
}

// PluginID records a catalog plugin under "plugin_id".
func PluginID(id fmt.Stringer) slog.Attr {
	return identifier("plugin_id", id)
}

// SubscriptionID records a subscription under "subscription_id".
func SubscriptionID(id fmt.Stringer) slog.Attr {
	return identifier("subscription_id", id)
}

// Role records a role name under "role".
func Role(role string) slog.Attr {
	return slog.String("role", role)
}

// Status records a subscription status under "status".
func Status(status string) slog.Attr {
	return slog.String("status", status)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func identifier(key string, id fmt.Stringer) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.String(key, id.String())
}
