package cache

import (
	"context"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Encoder is implemented by projections that can be written as JSON.
type Encoder interface {
	Encode(e *jx.Encoder)
}

// Codec is implemented by pointer types that round-trip through JSON.
type Codec interface {
	Encoder
	Decode(d *jx.Decoder) error
}

// Marshal encodes v into a fresh byte slice.
func Marshal(v Encoder) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	v.Encode(e)
	out := make([]byte, len(e.Bytes()))
	copy(out, e.Bytes())
	return out
}

// Fetch reads key through c, calling load on a miss. The bytes stored in
// the cache are exactly Marshal of the loaded value, so a hit decodes to the
// same projection a miss returned.
//
// An entry that fails to decode is evicted and the value is reloaded.
func Fetch[T any, P interface {
	*T
	Codec
}](ctx context.Context, c Cache, key string, load func(ctx context.Context) (P, error)) (P, error) {
	var fresh P
	raw, err := c.Load(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		fresh = v
		return Marshal(v), nil
	})
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		return fresh, nil
	}

	out := P(new(T))
	if err := out.Decode(jx.DecodeBytes(raw)); err != nil {
		zctx.From(ctx).Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.Invalidate(ctx, key)
		return load(ctx)
	}
	return out, nil
}
