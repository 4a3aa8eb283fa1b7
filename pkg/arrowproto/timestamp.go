package arrowproto

import (
	"fmt"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// timestampToTime reads seconds and nanos reflectively so that both generated
// timestamppb messages and dynamic ones are accepted.
func timestampToTime(m protoreflect.Message) (any, error) {
	seconds, nanos, err := timestampFields(m.Descriptor())
	if err != nil {
		return nil, err
	}
	return time.Unix(m.Get(seconds).Int(), m.Get(nanos).Int()).UTC(), nil
}

func timestampFromValue(value any, m protoreflect.Message, path string) error {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return coercionErrorf("nil %T for %s", v, wktTimestamp)
		}
		t = *v
	case arrow.Timestamp:
		t = v.ToTime(arrow.Microsecond)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return coercionErrorf("invalid timestamp %q: %v", v, err)
		}
		t = parsed
	default:
		return coercionErrorf("cannot convert %T to %s", value, wktTimestamp)
	}
	return setTimestamp(m, t)
}

func setTimestamp(m protoreflect.Message, t time.Time) error {
	seconds, nanos, err := timestampFields(m.Descriptor())
	if err != nil {
		return err
	}
	m.Set(seconds, protoreflect.ValueOfInt64(t.Unix()))
	m.Set(nanos, protoreflect.ValueOfInt32(int32(t.Nanosecond())))
	return nil
}

func timestampFields(md protoreflect.MessageDescriptor) (seconds, nanos protoreflect.FieldDescriptor, err error) {
	fields := md.Fields()
	seconds, nanos = fields.ByName("seconds"), fields.ByName("nanos")
	if seconds == nil || nanos == nil {
		return nil, nil, fmt.Errorf("%s is not a timestamp message", md.FullName())
	}
	return seconds, nanos, nil
}
