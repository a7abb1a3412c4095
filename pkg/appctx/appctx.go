// Package appctx carries request and record identifiers through a context so that logs
// and spans can be correlated.
package appctx

import "context"

type ContextKey string

var (
	RequestIDKey     = ContextKey("X-Request-Id")
	MethodKey        = ContextKey("X-Method")
	RouteKey         = ContextKey("X-Route")
	RemoteIPKey      = ContextKey("X-Remote-Ip")
	TransactionIDKey = ContextKey("X-Transaction-Id")
	RegionCodeKey    = ContextKey("X-Region-Code")
)

func set(ctx context.Context, key ContextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func get(ctx context.Context, key ContextKey) string {
	value, _ := ctx.Value(key).(string)
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return set(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string { return get(ctx, RequestIDKey) }

func SetMethod(ctx context.Context, method string) context.Context {
	return set(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string { return get(ctx, MethodKey) }

func SetRoute(ctx context.Context, route string) context.Context {
	return set(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string { return get(ctx, RouteKey) }

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return set(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string { return get(ctx, RemoteIPKey) }

// SetTransactionID tags the context with the transaction record being matched.
func SetTransactionID(ctx context.Context, id string) context.Context {
	return set(ctx, TransactionIDKey, id)
}

func GetTransactionID(ctx context.Context) string { return get(ctx, TransactionIDKey) }

func SetRegionCode(ctx context.Context, code string) context.Context {
	return set(ctx, RegionCodeKey, code)
}

func GetRegionCode(ctx context.Context) string { return get(ctx, RegionCodeKey) }

// LogFields returns the identifiers present in ctx as logger fields.
func LogFields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	for key, name := range map[ContextKey]string{
		RequestIDKey:     "request_id",
		TransactionIDKey: "transaction_id",
		RegionCodeKey:    "region_code",
	} {
		if v := get(ctx, key); v != "" {
			fields[name] = v
		}
	}
	return fields
}
