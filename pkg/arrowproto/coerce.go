package arrowproto

import (
	"bytes"
	"encoding/base64"
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// coerceScalar converts a mapping value into the protobuf value of a non-message
// field. An invalid Value with a nil error means the value is dropped, which only
// happens for unknown enum names under IgnoreUnknownFields.
func coerceScalar(fd protoreflect.FieldDescriptor, value any, opts *Options) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		if b, ok := value.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		n, err := toInt64(value)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if err := checkRange(n, math.MinInt32, math.MaxInt32); err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt32(int32(n)), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		n, err := toInt64(value)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfInt64(n), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		n, err := toUint64(value)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if err := checkRange(n, 0, math.MaxUint32); err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfUint32(uint32(n)), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		n, err := toUint64(value)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfUint64(n), nil
	case protoreflect.FloatKind:
		f, err := toFloat64(value)
		if err != nil {
			return protoreflect.Value{}, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) {
			if err := checkRange(f, -math.MaxFloat32, math.MaxFloat32); err != nil {
				return protoreflect.Value{}, err
			}
		}
		return protoreflect.ValueOfFloat32(float32(f)), nil
	case protoreflect.DoubleKind:
		f, err := toFloat64(value)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfFloat64(f), nil
	case protoreflect.StringKind:
		if s, ok := value.(string); ok {
			return protoreflect.ValueOfString(s), nil
		}
	case protoreflect.BytesKind:
		b, err := toBytes(value)
		if err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfBytes(b), nil
	case protoreflect.EnumKind:
		return coerceEnum(fd, value, opts)
	}
	return protoreflect.Value{}, coercionErrorf("cannot convert %T to %s", value, fd.Kind())
}

func coerceEnum(fd protoreflect.FieldDescriptor, value any, opts *Options) (protoreflect.Value, error) {
	ed := fd.Enum()
	if s, ok := value.(string); ok {
		if ev := ed.Values().ByName(protoreflect.Name(s)); ev != nil {
			return protoreflect.ValueOfEnum(ev.Number()), nil
		}
		if _, err := strconv.ParseInt(s, 10, 32); err != nil {
			if opts.IgnoreUnknownFields {
				return protoreflect.Value{}, nil
			}
			return protoreflect.Value{}, coercionErrorf("invalid value %q for enum %s", s, ed.FullName())
		}
	}
	n, err := toInt64(value)
	if err != nil {
		return protoreflect.Value{}, err
	}
	if err := checkRange(n, math.MinInt32, math.MaxInt32); err != nil {
		return protoreflect.Value{}, err
	}
	num := protoreflect.EnumNumber(n)
	if ed.IsClosed() && ed.Values().ByNumber(num) == nil {
		if opts.IgnoreUnknownFields {
			return protoreflect.Value{}, nil
		}
		return protoreflect.Value{}, coercionErrorf("invalid value %d for enum %s", n, ed.FullName())
	}
	return protoreflect.ValueOfEnum(num), nil
}

func checkRange[T constraints.Integer | constraints.Float](v, lo, hi T) error {
	if v < lo || v > hi {
		return coercionErrorf("value %v out of range [%v, %v]", v, lo, hi)
	}
	return nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			break
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			break
		}
		return int64(v), nil
	case float32:
		return integralFloat[int64](float64(v))
	case float64:
		return integralFloat[int64](v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, coercionErrorf("invalid integer %q", v)
		}
		return n, nil
	default:
		return 0, coercionErrorf("cannot convert %T to integer", value)
	}
	return 0, coercionErrorf("value %v out of range for int64", value)
}

func toUint64(value any) (uint64, error) {
	switch v := value.(type) {
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, coercionErrorf("invalid unsigned integer %q", v)
		}
		return n, nil
	case float32:
		return integralFloat[uint64](float64(v))
	case float64:
		return integralFloat[uint64](v)
	}
	n, err := toInt64(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, coercionErrorf("value %d out of range for unsigned field", n)
	}
	return uint64(n), nil
}

// integralFloat accepts floats holding a whole number, the form integers take
// after a round trip through a JSON document.
func integralFloat[T int64 | uint64](f float64) (T, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, coercionErrorf("value %v is not an integer", f)
	}
	var zero T
	lo, hi := float64(math.MinInt64), float64(math.MaxInt64)
	if _, unsigned := any(zero).(uint64); unsigned {
		lo, hi = 0, float64(math.MaxUint64)
	}
	if f < lo || f >= hi {
		return 0, coercionErrorf("value %v out of range", f)
	}
	return T(f), nil
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		switch v {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, coercionErrorf("invalid number %q", v)
		}
		return f, nil
	}
	if n, err := toInt64(value); err == nil {
		return float64(n), nil
	}
	if n, err := toUint64(value); err == nil {
		return float64(n), nil
	}
	return 0, coercionErrorf("cannot convert %T to float", value)
}

// toBytes takes raw bytes as-is, copying them so the message never aliases the
// caller's buffer. Strings are read as base64, standard alphabet first.
func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return bytes.Clone(v), nil
	case *bytes.Buffer:
		return bytes.Clone(v.Bytes()), nil
	case string:
		if b, err := base64.StdEncoding.DecodeString(v); err == nil {
			return b, nil
		}
		if b, err := base64.URLEncoding.DecodeString(v); err == nil {
			return b, nil
		}
		if b, err := base64.RawStdEncoding.DecodeString(v); err == nil {
			return b, nil
		}
		return nil, coercionErrorf("invalid base64 bytes %q", v)
	}
	return nil, coercionErrorf("cannot convert %T to bytes", value)
}
