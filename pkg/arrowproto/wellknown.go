package arrowproto

import (
	"fmt"
	"time"

	"github.com/arrowarc/protoarc/internal/json"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// wellKnownValue renders a well-known message the way the canonical JSON mapping
// does, except that wrapped 64-bit integers and bytes stay native.
func wellKnownValue(m protoreflect.Message, opts *Options) (any, error) {
	md := m.Descriptor()
	switch md.FullName() {
	case wktTimestamp, wktDuration:
		b, err := protojson.Marshal(m.Interface())
		if err != nil {
			return nil, err
		}
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("decode %s json: %w", md.FullName(), err)
		}
		return s, nil
	}

	fd := md.Fields().ByName("value")
	if fd == nil {
		return nil, fmt.Errorf("%s has no value field", md.FullName())
	}
	return scalarValue(fd, m.Get(fd), opts), nil
}

func parseWellKnown(value any, m protoreflect.Message, opts *Options) error {
	md := m.Descriptor()
	switch md.FullName() {
	case wktTimestamp:
		if t, ok := value.(time.Time); ok {
			return setTimestamp(m, t)
		}
		fallthrough
	case wktDuration:
		s, ok := value.(string)
		if !ok {
			return coercionErrorf("cannot convert %T to %s", value, md.FullName())
		}
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if err := protojson.Unmarshal(b, m.Interface()); err != nil {
			return coercionErrorf("invalid %s value %q: %v", md.FullName(), s, err)
		}
		return nil
	}

	fd := md.Fields().ByName("value")
	if fd == nil {
		return fmt.Errorf("%s has no value field", md.FullName())
	}
	pv, err := coerceScalar(fd, value, opts)
	if err != nil {
		return err
	}
	if pv.IsValid() {
		m.Set(fd, pv)
	}
	return nil
}
