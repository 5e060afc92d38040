package snsctx

import (
	"context"
	"encoding/hex"
	"log/slog"
)

type ctxIndex int

const ctxIndexVerbose ctxIndex = iota

func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// Dump logs a hex dump of buf at debug level when ctx is verbose.
func Dump(ctx context.Context, msg string, buf []byte, args ...any) {
	if !IsVerbose(ctx) {
		return
	}
	slog.Debug(msg, append(args, "data", "\n"+hex.Dump(buf))...)
}
