package logging

import "log/slog"

// Domain identifiers

func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Subject(id string) slog.Attr {
	return slog.String("subject_id", id)
}

func Feature(name string) slog.Attr {
	return slog.String("feature", name)
}

func Fingerprint(fp string) slog.Attr {
	return slog.String("fingerprint", fp)
}

func SocketID(id string) slog.Attr {
	return slog.String("socket_id", id)
}

func Transport(state string) slog.Attr {
	return slog.String("transport_state", state)
}

// Error handling

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
