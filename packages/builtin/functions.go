package builtin

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
)

// Func is a value-generator callable from expressions. Arguments arrive
// already parsed as plain values.
type Func func(args []any) (any, error)

type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{funcs: map[string]Func{}}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["uuid"] = funcUUID
	r.funcs["now"] = funcNow
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["timestampMs"] = funcTimestampMs
	r.funcs["date"] = funcDate
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = funcBase64
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["env"] = funcEnv
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

func (r *Registry) Call(name string, args []any) (any, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", name)
	}
	return fn(args)
}

func funcUUID([]any) (any, error) {
	return uuid.New().String(), nil
}

func funcNow([]any) (any, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcTimestamp([]any) (any, error) {
	return time.Now().Unix(), nil
}

func funcTimestampMs([]any) (any, error) {
	return time.Now().UnixMilli(), nil
}

func funcDate(args []any) (any, error) {
	format := "2006-01-02"
	if len(args) >= 1 {
		s, err := stringArg("date", args[0])
		if err != nil {
			return nil, err
		}
		format = s
	}
	return time.Now().UTC().Format(format), nil
}

func funcRandom(args []any) (any, error) {
	min, max := 0, 100
	if len(args) >= 2 {
		lo, err := intArg("random", args[0])
		if err != nil {
			return nil, err
		}
		hi, err := intArg("random", args[1])
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, fmt.Errorf("random: max %d below min %d", hi, lo)
		}
		min, max = lo, hi
	}
	return min + rand.Intn(max-min+1), nil
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func funcRandomString(args []any) (any, error) {
	length := 16
	if len(args) >= 1 {
		n, err := intArg("randomString", args[0])
		if err != nil {
			return nil, err
		}
		length = n
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(out), nil
}

func funcBase64(args []any) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("base64: missing argument")
	}
	s, err := stringArg("base64", args[0])
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func funcBase64Decode(args []any) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("base64Decode: missing argument")
	}
	s, err := stringArg("base64Decode", args[0])
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64Decode: %w", err)
	}
	return string(decoded), nil
}

func funcEnv(args []any) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("env: missing variable name")
	}
	name, err := stringArg("env", args[0])
	if err != nil {
		return nil, err
	}
	return os.Getenv(name), nil
}

func stringArg(fn string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected a string argument, got %T", fn, v)
	}
	return s, nil
}

func intArg(fn string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("%s: expected an integer argument, got %T", fn, v)
}
